package store

import (
	"sort"
	"sync"

	"github.com/rainner/cc-stream/internal/domain"
)

// CoinStore holds the live coin set keyed by uniq slug. All mutation
// goes through Update so readers always see a consistent set: the
// snapshot poller replaces entries, the streams patch them, the HTTP
// layer only ever reads copies.
type CoinStore struct {
	mu    sync.RWMutex
	coins map[string]*domain.Coin
}

// NewCoinStore creates an empty coin store.
func NewCoinStore() *CoinStore {
	return &CoinStore{coins: make(map[string]*domain.Coin)}
}

// Update runs fn with exclusive access to the coin map. fn may add,
// patch, or remove entries; the map passed in is the live one.
func (s *CoinStore) Update(fn func(coins map[string]*domain.Coin)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.coins)
}

// Get returns a deep copy of the coin with the given uniq slug.
func (s *CoinStore) Get(uniq string) (domain.Coin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coins[uniq]
	if !ok {
		return domain.Coin{}, false
	}
	return c.Copy(), true
}

// List returns deep copies of every coin, ordered by rank ascending.
func (s *CoinStore) List() []domain.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Coin, 0, len(s.coins))
	for _, c := range s.coins {
		out = append(out, c.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Len returns the number of tracked coins.
func (s *CoinStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.coins)
}

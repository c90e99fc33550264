package store

import (
	"sync"
	"testing"

	"github.com/rainner/cc-stream/internal/domain"
)

func TestCoinStore_UpdateAndGet(t *testing.T) {
	s := NewCoinStore()

	s.Update(func(coins map[string]*domain.Coin) {
		c := &domain.Coin{Uniq: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Rank: 1, Price: 64000}
		coins[c.Uniq] = c
	})

	got, ok := s.Get("bitcoin")
	if !ok {
		t.Fatal("expected bitcoin to exist")
	}
	if got.Symbol != "BTC" || got.Price != 64000 {
		t.Errorf("unexpected coin: %+v", got)
	}

	if _, ok := s.Get("dogecoin"); ok {
		t.Error("expected dogecoin to be absent")
	}
}

func TestCoinStore_GetReturnsCopy(t *testing.T) {
	s := NewCoinStore()
	s.Update(func(coins map[string]*domain.Coin) {
		coins["bitcoin"] = &domain.Coin{Uniq: "bitcoin", Price: 100, Graph: []float64{1, 2, 3}}
	})

	got, _ := s.Get("bitcoin")
	got.Price = 999
	got.Graph[0] = 999

	fresh, _ := s.Get("bitcoin")
	if fresh.Price != 100 {
		t.Error("mutating a returned coin leaked into the store")
	}
	if fresh.Graph[0] != 1 {
		t.Error("mutating a returned graph leaked into the store")
	}
}

func TestCoinStore_ListSortedByRank(t *testing.T) {
	s := NewCoinStore()
	s.Update(func(coins map[string]*domain.Coin) {
		coins["ethereum"] = &domain.Coin{Uniq: "ethereum", Rank: 2}
		coins["bitcoin"] = &domain.Coin{Uniq: "bitcoin", Rank: 1}
		coins["tether"] = &domain.Coin{Uniq: "tether", Rank: 3}
	})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 coins, got %d", len(list))
	}
	for i, want := range []string{"bitcoin", "ethereum", "tether"} {
		if list[i].Uniq != want {
			t.Errorf("position %d: expected %s, got %s", i, want, list[i].Uniq)
		}
	}
}

func TestCoinStore_ConcurrentAccess(t *testing.T) {
	s := NewCoinStore()
	s.Update(func(coins map[string]*domain.Coin) {
		coins["bitcoin"] = &domain.Coin{Uniq: "bitcoin", Rank: 1}
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(func(coins map[string]*domain.Coin) {
					if c, ok := coins["bitcoin"]; ok {
						c.Price += 1
					}
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Get("bitcoin")
				s.List()
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get("bitcoin")
	if got.Price != 800 {
		t.Errorf("expected price 800 after 800 increments, got %v", got.Price)
	}
}

package quote

import "sync"

// Currency is one selectable quote currency. Uniq matches the slug the
// ingestion sources report for the backing coin, so both the snapshot
// poller and the price stream can keep USDPrice fresh as a side effect.
type Currency struct {
	Uniq     string  `json:"uniq"`
	Symbol   string  `json:"symbol"`
	Prefix   string  `json:"prefix"`
	USDPrice float64 `json:"usd_price"`
}

// Table holds the known quote currencies and the currently selected one.
// It is shared between ingestors and the HTTP layer.
type Table struct {
	mu       sync.RWMutex
	selected string
	quotes   map[string]*Currency
	order    []string
}

// NewTable builds the default quote table: dollar, bitcoin, ethereum.
// Dollar is the base and always worth 1.
func NewTable() *Table {
	t := &Table{
		selected: "dollar",
		quotes:   make(map[string]*Currency),
	}
	t.add(&Currency{Uniq: "dollar", Symbol: "USD", Prefix: "$", USDPrice: 1})
	t.add(&Currency{Uniq: "bitcoin", Symbol: "BTC", Prefix: "₿"})
	t.add(&Currency{Uniq: "ethereum", Symbol: "ETH", Prefix: "Ξ"})
	return t
}

func (t *Table) add(c *Currency) {
	t.quotes[c.Uniq] = c
	t.order = append(t.order, c.Uniq)
}

// UpdatePrice refreshes the cached USD price of a quote currency.
// Slugs that are not registered quotes are ignored, so ingestors can
// call this for every coin they see.
func (t *Table) UpdatePrice(uniq string, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.quotes[uniq]; ok && uniq != "dollar" {
		c.USDPrice = price
	}
}

// Select switches the active quote currency. Unknown slugs are rejected.
func (t *Table) Select(uniq string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.quotes[uniq]; !ok {
		return false
	}
	t.selected = uniq
	return true
}

// Selected returns a copy of the active quote currency.
func (t *Table) Selected() Currency {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return *t.quotes[t.selected]
}

// List returns copies of all quote currencies in registration order.
func (t *Table) List() []Currency {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Currency, 0, len(t.order))
	for _, uniq := range t.order {
		out = append(out, *t.quotes[uniq])
	}
	return out
}

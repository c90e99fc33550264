package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/quote"
	"github.com/rainner/cc-stream/internal/store"
	"github.com/rainner/cc-stream/internal/wire"
)

// PairRate is the decoded state of one aggregate trading pair, exposed
// by the rates view. Hourly and daily changes are derived from the
// open prices the stream reports alongside the current price.
type PairRate struct {
	Pair       string      `json:"pair"`
	FromSymbol string      `json:"from_symbol"`
	ToSymbol   string      `json:"to_symbol"`
	Price      float64     `json:"price"`
	Volume24h  float64     `json:"volume_24h"`
	ChangeHour float64     `json:"change_hour"`
	PctHour    float64     `json:"pct_hour"`
	TrendHour  quote.Trend `json:"trend_hour"`
	Change24h  float64     `json:"change_24h"`
	Pct24h     float64     `json:"pct_24h"`
	Trend24h   quote.Trend `json:"trend_24h"`
	Updated    time.Time   `json:"updated"`
}

// PairBook caches the latest state per subscribed pair. Partial
// messages merge into the cached entry instead of replacing it, since
// the bitmask only ships fields that changed.
type PairBook struct {
	mu    sync.RWMutex
	pairs map[string]*PairRate
	// last seen open prices per pair, kept so a price-only update can
	// still recompute the change columns
	openHour map[string]float64
	open24   map[string]float64
}

// NewPairBook creates an empty pair cache.
func NewPairBook() *PairBook {
	return &PairBook{
		pairs:    make(map[string]*PairRate),
		openHour: make(map[string]float64),
		open24:   make(map[string]float64),
	}
}

// List returns copies of all cached pairs.
func (b *PairBook) List() []PairRate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]PairRate, 0, len(b.pairs))
	for _, p := range b.pairs {
		out = append(out, *p)
	}
	return out
}

// CompareStream consumes the aggregate pairs stream: delimited payloads
// decoded against the CurrentAgg schema. It maintains the pair book and
// patches the USD price of coins whose symbol matches a USD pair.
type CompareStream struct {
	wsURL    string
	exchange string
	pairs    []string
	book     *PairBook
	coins    *store.CoinStore
	quotes   *quote.Table
}

// NewCompareStream wires the pairs stream. pairs entries use the
// FROM~TO form, e.g. "BTC~USD".
func NewCompareStream(wsURL, exchange string, pairs []string, book *PairBook, coins *store.CoinStore, quotes *quote.Table) *CompareStream {
	return &CompareStream{
		wsURL:    wsURL,
		exchange: exchange,
		pairs:    pairs,
		book:     book,
		coins:    coins,
		quotes:   quotes,
	}
}

// ID identifies the stream in logs.
func (s *CompareStream) ID() string { return "COMPARE" }

// URL returns the stream endpoint.
func (s *CompareStream) URL() string { return s.wsURL }

// OnConnect subscribes to the configured pairs.
func (s *CompareStream) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	subs := make([]string, 0, len(s.pairs))
	for _, pair := range s.pairs {
		subs = append(subs, wire.SubKey(wire.TypeCurrentAgg, s.exchange)+wire.Delimiter+pair)
	}
	return conn.WriteJSON(map[string]any{"action": "SubAdd", "subs": subs})
}

// OnMessage decodes one payload and merges it into the pair book.
func (s *CompareStream) OnMessage(ctx context.Context, msg []byte) {
	decoded := wire.CurrentAgg.Decode(string(msg))

	if typ, _ := decoded.Get("TYPE"); typ != wire.TypeCurrentAgg {
		return
	}
	from, okFrom := decoded.Get("FROMSYMBOL")
	to, okTo := decoded.Get("TOSYMBOL")
	if !okFrom || !okTo {
		return
	}

	key := from + wire.Delimiter + to
	now := time.Now()

	s.book.mu.Lock()
	rate, ok := s.book.pairs[key]
	if !ok {
		rate = &PairRate{Pair: from + "/" + to, FromSymbol: from, ToSymbol: to}
		s.book.pairs[key] = rate
	}
	if v, ok := decoded.Float("OPENHOUR"); ok {
		s.book.openHour[key] = v
	}
	if v, ok := decoded.Float("OPEN24HOUR"); ok {
		s.book.open24[key] = v
	}
	if v, ok := decoded.Float("VOLUME24HOUR"); ok {
		rate.Volume24h = v
	}

	price, hasPrice := decoded.Float("PRICE")
	if hasPrice {
		rate.Price = price
		rate.ChangeHour, rate.PctHour, rate.TrendHour = quote.Change(s.book.openHour[key], price)
		rate.Change24h, rate.Pct24h, rate.Trend24h = quote.Change(s.book.open24[key], price)
		rate.Updated = now
	}
	s.book.mu.Unlock()

	// USD pairs also feed the coin list, matched by ticker symbol.
	if hasPrice && to == "USD" {
		s.patchCoin(from, price, now)
	}
}

func (s *CompareStream) patchCoin(symbol string, price float64, now time.Time) {
	selected := s.quotes.Selected()
	s.coins.Update(func(coins map[string]*domain.Coin) {
		for _, coin := range coins {
			if coin.Symbol != symbol {
				continue
			}
			coin.ApplyTicker(domain.TickerPatch{Price: fptr(price)})
			coin.ConvertPrice(selected.Symbol, selected.USDPrice, selected.Prefix)
			coin.AppendLivePrice(coin.Converted.Value, now)
			s.quotes.UpdatePrice(coin.Uniq, price)
			return
		}
	})
}

package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/quote"
	"github.com/rainner/cc-stream/internal/store"
)

// slugAliases maps stream asset keys to the slugs the snapshot source
// derives from coin names, where the two disagree.
var slugAliases = map[string]string{
	"ripple": "xrp",
}

// CoincapStream consumes the live price firehose. Each message is a
// flat slug-to-price object. Prices only patch coins that already
// exist; unknown slugs are dropped, never created.
type CoincapStream struct {
	wsURL  string
	assets string
	coins  *store.CoinStore
	quotes *quote.Table
}

// NewCoincapStream wires the price stream to the shared state.
func NewCoincapStream(wsURL, assets string, coins *store.CoinStore, quotes *quote.Table) *CoincapStream {
	return &CoincapStream{wsURL: wsURL, assets: assets, coins: coins, quotes: quotes}
}

// ID identifies the stream in logs.
func (s *CoincapStream) ID() string { return "COINCAP" }

// URL returns the subscription URL with the asset filter applied.
func (s *CoincapStream) URL() string {
	return s.wsURL + "?assets=" + url.QueryEscape(s.assets)
}

// OnConnect is a no-op: the asset filter rides on the URL.
func (s *CoincapStream) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

// OnMessage applies one price update batch.
func (s *CoincapStream) OnMessage(ctx context.Context, msg []byte) {
	var prices map[string]json.Number
	if err := json.Unmarshal(msg, &prices); err != nil {
		slog.Debug("price stream message skipped", "error", err)
		return
	}

	now := time.Now()
	selected := s.quotes.Selected()

	for slug, raw := range prices {
		price := domain.Float(raw)
		uniq := slug
		if alias, ok := slugAliases[slug]; ok {
			uniq = alias
		}

		s.quotes.UpdatePrice(uniq, price)

		s.coins.Update(func(coins map[string]*domain.Coin) {
			coin, ok := coins[uniq]
			if !ok {
				return
			}
			coin.ApplyTicker(domain.TickerPatch{Price: fptr(price)})
			coin.ConvertPrice(selected.Symbol, selected.USDPrice, selected.Prefix)
			coin.AppendLivePrice(coin.Converted.Value, now)
		})
	}
}

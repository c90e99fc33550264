package ingest

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/quote"
	"github.com/rainner/cc-stream/internal/store"
)

// Favorites provides the persisted favorites set applied on every
// snapshot merge, so a rebuilt coin list keeps its flags.
type Favorites interface {
	Favorites(ctx context.Context) map[string]bool
}

// SnapshotIngestor periodically replaces the coin list from the ranked
// REST endpoint. It is the only source allowed to create coins; the
// streams merely patch what it created. A failed or malformed fetch
// leaves the previous list untouched.
type SnapshotIngestor struct {
	client   *PaprikaClient
	coins    *store.CoinStore
	quotes   *quote.Table
	favs     Favorites
	topLimit int
}

// NewSnapshotIngestor wires the poller to its collaborators.
func NewSnapshotIngestor(client *PaprikaClient, coins *store.CoinStore, quotes *quote.Table, favs Favorites, topLimit int) *SnapshotIngestor {
	return &SnapshotIngestor{
		client:   client,
		coins:    coins,
		quotes:   quotes,
		favs:     favs,
		topLimit: topLimit,
	}
}

// Run executes one snapshot cycle. Suitable as the body of a fixed-delay task.
func (s *SnapshotIngestor) Run(ctx context.Context) {
	tickers, err := s.client.Tickers(ctx)
	if err != nil {
		slog.Warn("snapshot fetch failed, keeping previous list", "error", err)
		return
	}
	if len(tickers) == 0 {
		slog.Warn("snapshot returned no tickers, keeping previous list")
		return
	}

	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Rank < tickers[j].Rank })
	if s.topLimit > 0 && len(tickers) > s.topLimit {
		tickers = tickers[:s.topLimit]
	}

	// Refresh quote currency prices before converting anything, so a
	// coin quoted in BTC uses this cycle's BTC price.
	for _, t := range tickers {
		if usd, ok := t.Quotes["USD"]; ok {
			s.quotes.UpdatePrice(domain.Uniq(t.Name), domain.Float(usd.Price))
		}
	}
	selected := s.quotes.Selected()

	favs := map[string]bool{}
	if s.favs != nil {
		favs = s.favs.Favorites(ctx)
	}

	s.coins.Update(func(coins map[string]*domain.Coin) {
		next := make(map[string]*domain.Coin, len(tickers))
		for position, t := range tickers {
			uniq := domain.Uniq(t.Name)
			if uniq == "" {
				continue
			}

			coin, ok := coins[uniq]
			if !ok {
				coin = domain.NewCoin()
			}

			coin.ApplyIdentity(domain.IdentityPatch{
				ID:     t.ID,
				Name:   t.Name,
				Symbol: t.Symbol,
				Quote:  selected.Symbol,
			})

			patch := domain.TickerPatch{
				Rank:              iptr(t.Rank),
				Position:          iptr(position + 1),
				CirculatingSupply: fptr(domain.Float(t.CirculatingSupply)),
				MaxSupply:         fptr(domain.Float(t.MaxSupply)),
			}
			if usd, ok := t.Quotes["USD"]; ok {
				patch.Price = fptr(domain.Float(usd.Price))
				patch.ATHPrice = fptr(domain.Float(usd.ATHPrice))
				patch.Volume24h = fptr(domain.Float(usd.Volume24h))
				patch.MarketCap = fptr(domain.Float(usd.MarketCap))
				patch.Changes = map[string]float64{
					"1h":  domain.Float(usd.PercentChange1h),
					"24h": domain.Float(usd.PercentChange24h),
					"7d":  domain.Float(usd.PercentChange7d),
					"30d": domain.Float(usd.PercentChange30d),
					"1y":  domain.Float(usd.PercentChange1y),
				}
			}
			coin.ApplyTicker(patch)
			coin.ConvertPrice(selected.Symbol, selected.USDPrice, selected.Prefix)
			coin.SetFavorite(favs[uniq])

			next[uniq] = coin
		}

		for k := range coins {
			delete(coins, k)
		}
		for k, v := range next {
			coins[k] = v
		}
	})

	slog.Info("snapshot merged", "coins", s.coins.Len())
}

// Interval returns the poll delay for the given config seconds.
func Interval(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

package view

import (
	"sort"
	"strings"

	"github.com/rainner/cc-stream/internal/domain"
)

// CoinQuery describes one ticker-list request: filtering, ordering and
// pagination happen server-side over a stable copy of the coin set.
type CoinQuery struct {
	Search    string
	FavsOnly  bool
	SortKey   string
	SortOrder string
	Page      int
	Limit     int
}

// CoinPage is one projected page of the ticker list.
type CoinPage struct {
	Coins []domain.Coin `json:"coins"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// sanitizeSearch strips everything but letters, digits and spaces so a
// pasted symbol like "$BTC!" still matches.
func sanitizeSearch(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == ' ' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ProjectCoins filters, sorts and paginates the coin list.
func ProjectCoins(coins []domain.Coin, q CoinQuery) CoinPage {
	filtered := coins[:0:0]
	search := sanitizeSearch(q.Search)

	for _, c := range coins {
		if q.FavsOnly && !c.IsFavorite {
			continue
		}
		if search != "" {
			symbol := strings.ToLower(c.Symbol)
			name := strings.ToLower(c.Name)
			if !strings.Contains(symbol, search) && !strings.Contains(name, search) {
				continue
			}
		}
		filtered = append(filtered, c)
	}

	sortCoins(filtered, q.SortKey, q.SortOrder)

	limit := q.Limit
	if limit <= 0 {
		limit = len(filtered)
	}
	pages := 0
	if limit > 0 {
		pages = (len(filtered) + limit - 1) / limit
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return CoinPage{
		Coins: filtered[start:end],
		Total: len(filtered),
		Page:  page,
		Pages: pages,
	}
}

func sortCoins(coins []domain.Coin, key, order string) {
	less := func(i, j int) bool { return coins[i].Rank < coins[j].Rank }

	switch key {
	case "price":
		less = func(i, j int) bool { return coins[i].Price < coins[j].Price }
	case "volume":
		less = func(i, j int) bool { return coins[i].Volume24h < coins[j].Volume24h }
	case "marketcap":
		less = func(i, j int) bool { return coins[i].MarketCap < coins[j].MarketCap }
	case "name":
		less = func(i, j int) bool { return coins[i].Name < coins[j].Name }
	case "change":
		less = func(i, j int) bool {
			return coins[i].Changes["24h"].Value < coins[j].Changes["24h"].Value
		}
	}

	if order == "desc" {
		orig := less
		less = func(i, j int) bool { return orig(j, i) }
	}
	sort.SliceStable(coins, less)
}

// TopMovers returns the n coins with the largest 24h gains, skipping
// anything without a positive move.
func TopMovers(coins []domain.Coin, n int) []domain.Coin {
	movers := make([]domain.Coin, 0, len(coins))
	for _, c := range coins {
		if c.Changes["24h"].Value > 0 {
			movers = append(movers, c)
		}
	}
	sort.SliceStable(movers, func(i, j int) bool {
		return movers[i].Changes["24h"].Value > movers[j].Changes["24h"].Value
	})
	if n > 0 && len(movers) > n {
		movers = movers[:n]
	}
	return movers
}

// FeedQuery describes one feed-list request.
type FeedQuery struct {
	Tab    string
	Search string
	Limit  int
}

// FeedPage is a projected feed list with per-tab new-entry counts over
// the whole set, not just the returned slice.
type FeedPage struct {
	Entries   []domain.FeedEntry `json:"entries"`
	Total     int                `json:"total"`
	NewCounts map[string]int     `json:"new_counts"`
}

// ProjectFeeds filters the merged feed list by tab and search term.
func ProjectFeeds(entries []domain.FeedEntry, q FeedQuery) FeedPage {
	newCounts := make(map[string]int)
	for _, e := range entries {
		if e.IsNew {
			newCounts[e.Type]++
		}
	}

	search := sanitizeSearch(q.Search)
	filtered := entries[:0:0]
	for _, e := range entries {
		if q.Tab != "" && e.Type != q.Tab {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		filtered = append(filtered, e)
	}

	total := len(filtered)
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}

	return FeedPage{Entries: filtered, Total: total, NewCounts: newCounts}
}

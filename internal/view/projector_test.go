package view

import (
	"testing"
	"time"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/quote"
)

func testCoins() []domain.Coin {
	mk := func(name, symbol string, rank int, price, volume, change24 float64, fav bool) domain.Coin {
		return domain.Coin{
			Uniq: domain.Uniq(name), Name: name, Symbol: symbol,
			Rank: rank, Price: price, Volume24h: volume, IsFavorite: fav,
			Changes: map[string]domain.PercentChange{
				"24h": {Value: change24, Trend: quote.Classify(change24)},
			},
		}
	}
	return []domain.Coin{
		mk("Bitcoin", "BTC", 1, 64000, 3e10, 2.5, true),
		mk("Ethereum", "ETH", 2, 3500, 1.5e10, -1.2, false),
		mk("Tether", "USDT", 3, 1, 5e10, 0.01, false),
		mk("XRP", "XRP", 4, 0.52, 9e8, 7.8, true),
		mk("Cardano", "ADA", 5, 0.45, 4e8, -3.1, false),
		mk("Dogecoin", "DOGE", 6, 0.11, 6e8, 12.4, false),
	}
}

func TestProjectCoins_DefaultRankOrder(t *testing.T) {
	page := ProjectCoins(testCoins(), CoinQuery{})
	if page.Total != 6 {
		t.Fatalf("expected 6 total, got %d", page.Total)
	}
	if page.Coins[0].Uniq != "bitcoin" || page.Coins[5].Uniq != "dogecoin" {
		t.Error("default order should be rank ascending")
	}
}

func TestProjectCoins_Search(t *testing.T) {
	t.Run("matches symbol", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{Search: "btc"})
		if page.Total != 1 || page.Coins[0].Uniq != "bitcoin" {
			t.Errorf("unexpected result: %+v", page.Coins)
		}
	})
	t.Run("matches name case-insensitive", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{Search: "CARD"})
		if page.Total != 1 || page.Coins[0].Uniq != "cardano" {
			t.Errorf("unexpected result: %+v", page.Coins)
		}
	})
	t.Run("strips punctuation", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{Search: "$eth!"})
		if page.Total != 2 {
			// matches Ethereum and Tether
			t.Errorf("expected 2 matches, got %d", page.Total)
		}
	})
}

func TestProjectCoins_FavsOnly(t *testing.T) {
	page := ProjectCoins(testCoins(), CoinQuery{FavsOnly: true})
	if page.Total != 2 {
		t.Fatalf("expected 2 favorites, got %d", page.Total)
	}
	for _, c := range page.Coins {
		if !c.IsFavorite {
			t.Errorf("non-favorite leaked: %s", c.Uniq)
		}
	}
}

func TestProjectCoins_SortKeys(t *testing.T) {
	t.Run("volume desc", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{SortKey: "volume", SortOrder: "desc"})
		if page.Coins[0].Uniq != "tether" {
			t.Errorf("expected tether first by volume, got %s", page.Coins[0].Uniq)
		}
	})
	t.Run("change asc", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{SortKey: "change"})
		if page.Coins[0].Uniq != "cardano" {
			t.Errorf("expected cardano first by 24h change, got %s", page.Coins[0].Uniq)
		}
	})
	t.Run("name asc", func(t *testing.T) {
		page := ProjectCoins(testCoins(), CoinQuery{SortKey: "name"})
		if page.Coins[0].Uniq != "bitcoin" {
			t.Errorf("expected bitcoin first by name, got %s", page.Coins[0].Uniq)
		}
	})
}

func TestProjectCoins_Pagination(t *testing.T) {
	page := ProjectCoins(testCoins(), CoinQuery{Limit: 4, Page: 2})
	if page.Pages != 2 || page.Page != 2 {
		t.Fatalf("expected page 2 of 2, got %d of %d", page.Page, page.Pages)
	}
	if len(page.Coins) != 2 {
		t.Fatalf("expected 2 coins on the last page, got %d", len(page.Coins))
	}
	if page.Coins[0].Uniq != "xrp" {
		t.Errorf("unexpected first coin on page 2: %s", page.Coins[0].Uniq)
	}

	// out-of-range page clamps to the last page
	page = ProjectCoins(testCoins(), CoinQuery{Limit: 4, Page: 99})
	if page.Page != 2 {
		t.Errorf("expected clamp to page 2, got %d", page.Page)
	}
}

func TestTopMovers(t *testing.T) {
	movers := TopMovers(testCoins(), 2)
	if len(movers) != 2 {
		t.Fatalf("expected 2 movers, got %d", len(movers))
	}
	if movers[0].Uniq != "dogecoin" || movers[1].Uniq != "xrp" {
		t.Errorf("unexpected movers order: %s, %s", movers[0].Uniq, movers[1].Uniq)
	}

	// losers never qualify
	for _, m := range TopMovers(testCoins(), 10) {
		if m.Changes["24h"].Value <= 0 {
			t.Errorf("non-gainer in movers: %s", m.Uniq)
		}
	}
}

func testFeeds() []domain.FeedEntry {
	now := time.Now()
	return []domain.FeedEntry{
		{Uniq: "a", Type: "news", Title: "Bitcoin rallies", Published: now, IsNew: true},
		{Uniq: "b", Type: "news", Title: "Exchange hacked", Published: now.Add(-time.Hour)},
		{Uniq: "c", Type: "reddit", Title: "Daily discussion", Published: now.Add(-2 * time.Hour), IsNew: true},
		{Uniq: "d", Type: "twitter", Title: "gm", Published: now.Add(-3 * time.Hour)},
	}
}

func TestProjectFeeds_TabFilter(t *testing.T) {
	page := ProjectFeeds(testFeeds(), FeedQuery{Tab: "news"})
	if page.Total != 2 {
		t.Fatalf("expected 2 news entries, got %d", page.Total)
	}
	for _, e := range page.Entries {
		if e.Type != "news" {
			t.Errorf("wrong tab leaked: %s", e.Type)
		}
	}
}

func TestProjectFeeds_NewCountsCoverAllTabs(t *testing.T) {
	page := ProjectFeeds(testFeeds(), FeedQuery{Tab: "twitter"})
	if page.NewCounts["news"] != 1 || page.NewCounts["reddit"] != 1 {
		t.Errorf("new counts should span all tabs: %v", page.NewCounts)
	}
}

func TestProjectFeeds_SearchAndLimit(t *testing.T) {
	page := ProjectFeeds(testFeeds(), FeedQuery{Search: "bitcoin"})
	if page.Total != 1 || page.Entries[0].Uniq != "a" {
		t.Errorf("unexpected search result: %+v", page.Entries)
	}

	page = ProjectFeeds(testFeeds(), FeedQuery{Limit: 2})
	if page.Total != 4 || len(page.Entries) != 2 {
		t.Errorf("limit should cap entries but not total: %d/%d", len(page.Entries), page.Total)
	}
}

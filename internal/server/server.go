// Package server exposes the dashboard API over HTTP. Handlers only
// read projected copies of shared state; all mutation funnels through
// the same patch operations the ingestors use.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/ingest"
	"github.com/rainner/cc-stream/internal/market"
	"github.com/rainner/cc-stream/internal/quote"
	"github.com/rainner/cc-stream/internal/store"
	"github.com/rainner/cc-stream/internal/view"
)

// FavoriteSaver persists favorite flips.
type FavoriteSaver interface {
	SaveFavorite(ctx context.Context, uniq string, fav bool) error
}

// FeedSource supplies the merged feed list and its last-run errors.
type FeedSource interface {
	Entries() []domain.FeedEntry
	Errors() []string
}

// MarketSource supplies per-exchange records for the detail view.
type MarketSource interface {
	Markets(ctx context.Context, id string) ([]market.Record, error)
	Events(ctx context.Context, id string) ([]ingest.EventDTO, error)
	Historical(ctx context.Context, id string, start time.Time, interval string) ([]ingest.HistoricalDTO, error)
}

// Server bundles the API dependencies.
type Server struct {
	coins   *store.CoinStore
	quotes  *quote.Table
	favs    FavoriteSaver
	feeds   FeedSource
	rates   *ingest.PairBook
	markets MarketSource

	feedLimit     int
	feedSearchMin int
}

// New wires the API server.
func New(coins *store.CoinStore, quotes *quote.Table, favs FavoriteSaver, feeds FeedSource, rates *ingest.PairBook, markets MarketSource) *Server {
	return &Server{
		coins:   coins,
		quotes:  quotes,
		favs:    favs,
		feeds:   feeds,
		rates:   rates,
		markets: markets,
	}
}

// SetFeedDefaults configures the feed list defaults: the entry cap
// applied when a request names none, and the shortest search term the
// API will act on.
func (s *Server) SetFeedDefaults(displayLimit, searchMinimum int) {
	s.feedLimit = displayLimit
	s.feedSearchMin = searchMinimum
}

// Router builds the gin engine with permissive CORS, matching the
// public dashboards the API serves.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	api := r.Group("/api")
	{
		api.GET("/coins", s.listCoins)
		api.GET("/coins/top", s.topMovers)
		api.GET("/coins/:id", s.getCoin)
		api.GET("/coins/:id/chart", s.coinChart)
		api.PUT("/coins/:id/favorite", s.setFavorite)
		api.GET("/coins/:id/markets", s.coinMarkets)
		api.GET("/coins/:id/events", s.coinEvents)
		api.GET("/coins/:id/historical", s.coinHistory)
		api.GET("/rates", s.listRates)
		api.GET("/feeds", s.listFeeds)
		api.GET("/feeds/errors", s.feedErrors)
		api.GET("/quotes", s.listQuotes)
		api.PUT("/quote", s.selectQuote)
	}
	return r
}

func (s *Server) listCoins(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	q := view.CoinQuery{
		Search:    c.Query("search"),
		FavsOnly:  c.Query("favs") == "true",
		SortKey:   c.Query("sort"),
		SortOrder: c.DefaultQuery("order", "asc"),
		Page:      page,
		Limit:     limit,
	}
	c.JSON(http.StatusOK, view.ProjectCoins(s.coins.List(), q))
}

func (s *Server) topMovers(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	c.JSON(http.StatusOK, view.TopMovers(s.coins.List(), n))
}

func (s *Server) getCoin(c *gin.Context) {
	coin, ok := s.coins.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coin": coin,
		"display": gin.H{
			"price":      view.Money(coin.Converted.Value, coin.Converted.Decimals),
			"market_cap": view.Compact(coin.MarketCap),
			"volume_24h": view.Compact(coin.Volume24h),
			"change_24h": view.Percent(coin.Changes["24h"].Value),
		},
	})
}

// coinChart renders the live price buffer as sparkline geometry.
func (s *Server) coinChart(c *gin.Context) {
	coin, ok := s.coins.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}

	width, _ := strconv.ParseFloat(c.DefaultQuery("width", "200"), 64)
	height, _ := strconv.ParseFloat(c.DefaultQuery("height", "40"), 64)

	points := view.Sparkline(coin.Graph, width, height)
	c.JSON(http.StatusOK, gin.H{
		"samples":  len(coin.Graph),
		"points":   points,
		"polyline": view.Polyline(points),
	})
}

func (s *Server) setFavorite(c *gin.Context) {
	uniq := c.Param("id")

	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found := false
	s.coins.Update(func(coins map[string]*domain.Coin) {
		if coin, ok := coins[uniq]; ok {
			coin.SetFavorite(body.Favorite)
			found = true
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}

	if s.favs != nil {
		if err := s.favs.SaveFavorite(c.Request.Context(), uniq, body.Favorite); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"uniq": uniq, "favorite": body.Favorite})
}

func (s *Server) coinMarkets(c *gin.Context) {
	coin, ok := s.coins.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}

	records, err := s.markets.Markets(c.Request.Context(), coin.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	minVolume, _ := strconv.ParseFloat(c.DefaultQuery("min_volume", "0"), 64)
	var blacklist []string
	if raw := c.Query("exclude"); raw != "" {
		blacklist = strings.Split(raw, ",")
	}
	groups := market.Aggregate(records, market.Filters{
		BaseID:    coin.ID,
		MinVolume: minVolume,
		Blacklist: blacklist,
	})
	c.JSON(http.StatusOK, market.Sorted(groups))
}

func (s *Server) coinEvents(c *gin.Context) {
	coin, ok := s.coins.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}
	events, err := s.markets.Events(c.Request.Context(), coin.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) coinHistory(c *gin.Context) {
	coin, ok := s.coins.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin"})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 {
		days = 1
	}
	start := time.Now().AddDate(0, 0, -days)

	history, err := s.markets.Historical(c.Request.Context(), coin.ID, start, c.DefaultQuery("interval", "1d"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) listRates(c *gin.Context) {
	c.JSON(http.StatusOK, s.rates.List())
}

func (s *Server) listFeeds(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit <= 0 {
		limit = s.feedLimit
	}
	search := c.Query("search")
	if len(search) < s.feedSearchMin {
		search = ""
	}
	q := view.FeedQuery{
		Tab:    c.Query("tab"),
		Search: search,
		Limit:  limit,
	}
	c.JSON(http.StatusOK, view.ProjectFeeds(s.feeds.Entries(), q))
}

func (s *Server) feedErrors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": s.feeds.Errors()})
}

func (s *Server) listQuotes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"selected": s.quotes.Selected(),
		"quotes":   s.quotes.List(),
	})
}

// selectQuote switches the display currency. Every coin is reconverted
// immediately and its live graph flushed, since old samples are priced
// in the previous currency.
func (s *Server) selectQuote(c *gin.Context) {
	var body struct {
		Uniq string `json:"uniq"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.quotes.Select(body.Uniq) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quote currency"})
		return
	}

	selected := s.quotes.Selected()
	s.coins.Update(func(coins map[string]*domain.Coin) {
		for _, coin := range coins {
			coin.ApplyIdentity(domain.IdentityPatch{Quote: selected.Symbol})
			coin.ConvertPrice(selected.Symbol, selected.USDPrice, selected.Prefix)
			coin.FlushGraph()
		}
	})
	c.JSON(http.StatusOK, gin.H{"selected": selected})
}

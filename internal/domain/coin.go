package domain

import (
	"math/rand"
	"strings"
	"time"

	"github.com/rainner/cc-stream/internal/quote"
)

// Graph buffer sizing. The compact ticker rows use the default cap, the
// detail view can raise it up to the max.
const (
	DefaultGraphCap = 180
	MaxGraphCap     = 300

	// Minimum time between two live-graph appends.
	DefaultAppendInterval = time.Second

	// Number of synthetic samples seeded on the first append so the
	// sparkline never renders as a single flat point.
	graphSeedSamples = 12
)

// Horizons lists the percent-change windows tracked per coin,
// in display order.
var Horizons = []string{"1h", "24h", "7d", "30d", "1y"}

// PercentChange pairs a percent-change value with its trend class.
type PercentChange struct {
	Value float64     `json:"value"`
	Trend quote.Trend `json:"trend"`
}

// Coin is the normalized mutable record for one tradable asset. All
// ingestion sources merge into the same Coin, joined by the Uniq slug.
type Coin struct {
	// identity
	ID     string `json:"id"`
	Uniq   string `json:"uniq"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Quote  string `json:"quote"`
	Pair   string `json:"pair"`

	// ranking
	Rank     int `json:"rank"`
	Position int `json:"position"`

	// ticker numbers
	Price             float64 `json:"price"`
	ATHPrice          float64 `json:"ath_price"`
	Volume24h         float64 `json:"volume_24h"`
	MarketCap         float64 `json:"market_cap"`
	CirculatingSupply float64 `json:"circulating_supply"`
	MaxSupply         float64 `json:"max_supply"`

	// percent changes per horizon, each with a derived trend
	Changes map[string]PercentChange `json:"changes"`

	// social subscriber counts
	TwitterSubs  int64 `json:"twitter_subs"`
	RedditSubs   int64 `json:"reddit_subs"`
	GithubSubs   int64 `json:"github_subs"`
	TelegramSubs int64 `json:"telegram_subs"`

	IsFavorite bool `json:"isfav"`

	// display price in the selected quote currency
	Converted quote.Converted `json:"converted"`

	// rolling buffer of recent converted prices for the sparkline
	Graph []float64 `json:"graph"`

	graphCap   int
	lastAppend time.Time
}

// NewCoin returns an empty coin quoted in USD.
func NewCoin() *Coin {
	return &Coin{
		Quote:    "USD",
		Changes:  make(map[string]PercentChange, len(Horizons)),
		graphCap: DefaultGraphCap,
	}
}

// IdentityPatch carries identity fields from an ingestion source.
// Empty fields are left untouched on merge.
type IdentityPatch struct {
	ID     string
	Name   string
	Symbol string
	Quote  string
}

// TickerPatch carries numeric ticker fields. Nil pointers mean the
// source did not report that field; Changes keys carry only the
// horizons present in this update.
type TickerPatch struct {
	Rank              *int
	Position          *int
	Price             *float64
	ATHPrice          *float64
	Volume24h         *float64
	MarketCap         *float64
	CirculatingSupply *float64
	MaxSupply         *float64
	Changes           map[string]float64
}

// SubsPatch carries social subscriber counts. Sources always report the
// full set, so all four are applied.
type SubsPatch struct {
	Twitter  int64
	Reddit   int64
	Github   int64
	Telegram int64
}

// ApplyIdentity merges identity fields and recomputes the derived ones:
// Uniq from the name, normalized Symbol/Quote codes, and the Pair string.
func (c *Coin) ApplyIdentity(p IdentityPatch) {
	if p.ID != "" {
		c.ID = p.ID
	}
	if p.Name != "" {
		c.Name = strings.TrimSpace(p.Name)
	}
	if p.Symbol != "" {
		c.Symbol = Letters(p.Symbol)
	}
	if p.Quote != "" {
		c.Quote = Letters(p.Quote)
	}
	c.Uniq = Uniq(c.Name)
	c.Pair = c.Symbol + c.Quote
}

// ApplyTicker merges the numeric fields present in the patch, coercing
// every value so malformed input lands as 0, and reclassifies the trend
// for each percent-change horizon included in this update.
func (c *Coin) ApplyTicker(p TickerPatch) {
	if p.Rank != nil {
		c.Rank = *p.Rank
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Price != nil {
		c.Price = Float(*p.Price)
	}
	if p.ATHPrice != nil {
		c.ATHPrice = Float(*p.ATHPrice)
	}
	if p.Volume24h != nil {
		c.Volume24h = Float(*p.Volume24h)
	}
	if p.MarketCap != nil {
		c.MarketCap = Float(*p.MarketCap)
	}
	if p.CirculatingSupply != nil {
		c.CirculatingSupply = Float(*p.CirculatingSupply)
	}
	if p.MaxSupply != nil {
		c.MaxSupply = Float(*p.MaxSupply)
	}
	if c.Changes == nil {
		c.Changes = make(map[string]PercentChange, len(Horizons))
	}
	for horizon, value := range p.Changes {
		value = Float(value)
		c.Changes[horizon] = PercentChange{Value: value, Trend: quote.Classify(value)}
	}
}

// ApplySubs replaces the social subscriber counts.
func (c *Coin) ApplySubs(p SubsPatch) {
	c.TwitterSubs = p.Twitter
	c.RedditSubs = p.Reddit
	c.GithubSubs = p.Github
	c.TelegramSubs = p.Telegram
}

// SetFavorite sets the favorite flag. Idempotent.
func (c *Coin) SetFavorite(fav bool) {
	c.IsFavorite = fav
}

// ConvertPrice recomputes the display price for the given quote currency.
func (c *Coin) ConvertPrice(quoteSymbol string, quoteUSDPrice float64, quotePrefix string) {
	c.Converted = quote.Convert(c.Price, quoteSymbol, quoteUSDPrice, quotePrefix)
}

// SetGraphCap bounds the rolling buffer capacity, clamped to
// [1, MaxGraphCap]. Shrinking evicts oldest samples immediately.
func (c *Coin) SetGraphCap(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxGraphCap {
		n = MaxGraphCap
	}
	c.graphCap = n
	c.trimGraph()
}

// AppendLivePrice appends a converted price to the rolling buffer,
// throttled to one sample per DefaultAppendInterval. The first append
// seeds the buffer with jittered samples around the price. Returns
// whether the sample was accepted.
func (c *Coin) AppendLivePrice(price float64, now time.Time) bool {
	if !c.lastAppend.IsZero() && now.Sub(c.lastAppend) < DefaultAppendInterval {
		return false
	}
	if c.graphCap == 0 {
		c.graphCap = DefaultGraphCap
	}
	if len(c.Graph) == 0 {
		c.seedGraph(price)
	}
	c.Graph = append(c.Graph, price)
	c.trimGraph()
	c.lastAppend = now
	return true
}

// FlushGraph drops the rolling buffer, e.g. after a quote currency
// switch invalidates every sample in it.
func (c *Coin) FlushGraph() {
	c.Graph = nil
	c.lastAppend = time.Time{}
}

// seedGraph fills the buffer with pseudo-random samples within roughly
// 0.001%-0.01% of the price, so the first rendered sparkline has shape.
func (c *Coin) seedGraph(price float64) {
	for i := 0; i < graphSeedSamples; i++ {
		scale := price * (0.00001 + rand.Float64()*0.00009)
		c.Graph = append(c.Graph, price+(rand.Float64()*2-1)*scale)
	}
}

func (c *Coin) trimGraph() {
	if extra := len(c.Graph) - c.graphCap; extra > 0 {
		c.Graph = append(c.Graph[:0], c.Graph[extra:]...)
	}
}

// Copy returns a value copy safe to hand to readers: the graph slice
// and changes map are duplicated.
func (c *Coin) Copy() Coin {
	out := *c
	out.Graph = append([]float64(nil), c.Graph...)
	out.Changes = make(map[string]PercentChange, len(c.Changes))
	for k, v := range c.Changes {
		out.Changes[k] = v
	}
	return out
}

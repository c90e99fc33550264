package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"time"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/infra"
	"github.com/rainner/cc-stream/internal/market"
)

// TickerDTO is one entry of the ranked-list endpoint. Numeric fields
// arrive untyped because the upstream occasionally sends strings or
// nulls; coercion happens at merge time.
type TickerDTO struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Symbol            string              `json:"symbol"`
	Rank              int                 `json:"rank"`
	CirculatingSupply any                 `json:"circulating_supply"`
	MaxSupply         any                 `json:"max_supply"`
	Quotes            map[string]QuoteDTO `json:"quotes"`
}

// QuoteDTO carries the per-currency numbers of one ticker entry.
type QuoteDTO struct {
	Price            any `json:"price"`
	Volume24h        any `json:"volume_24h"`
	MarketCap        any `json:"market_cap"`
	ATHPrice         any `json:"ath_price"`
	PercentChange1h  any `json:"percent_change_1h"`
	PercentChange24h any `json:"percent_change_24h"`
	PercentChange7d  any `json:"percent_change_7d"`
	PercentChange30d any `json:"percent_change_30d"`
	PercentChange1y  any `json:"percent_change_1y"`
}

// EventDTO is one project event from the upstream events endpoint.
type EventDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	DateTo       string `json:"date_to"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsConference bool   `json:"is_conference"`
	Link         string `json:"link"`
	ProofImage   string `json:"proof_image_link"`
}

// HistoricalDTO is one OHLC-less historical sample.
type HistoricalDTO struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume24h float64 `json:"volume_24h"`
	MarketCap float64 `json:"market_cap"`
}

type coinDetailDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Rank          int    `json:"rank"`
	LinksExtended []struct {
		URL   string `json:"url"`
		Type  string `json:"type"`
		Stats struct {
			Followers   int64 `json:"followers"`
			Subscribers int64 `json:"subscribers"`
			Stars       int64 `json:"stars"`
			Members     int64 `json:"members"`
		} `json:"stats"`
	} `json:"links_extended"`
}

type marketDTO struct {
	ExchangeID     string              `json:"exchange_id"`
	ExchangeName   string              `json:"exchange_name"`
	Pair           string              `json:"pair"`
	BaseID         string              `json:"base_currency_id"`
	MarketURL      string              `json:"market_url"`
	Category       string              `json:"category"`
	Outlier        bool                `json:"outlier"`
	AdjVolumeShare any                 `json:"adjusted_volume_24h_share"`
	Quotes         map[string]QuoteDTO `json:"quotes"`
}

// PaprikaClient talks to the ranked-list REST API. Every call goes
// through the shared rate limiter so the poller and the on-demand
// detail endpoints never exceed the free tier together.
type PaprikaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *infra.RateLimiter
}

// NewPaprikaClient creates a client for the given API base URL.
func NewPaprikaClient(baseURL string) *PaprikaClient {
	return &PaprikaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: infra.PaprikaRateLimiter(),
	}
}

// Tickers fetches the full ranked ticker list, quoted in USD.
func (c *PaprikaClient) Tickers(ctx context.Context) ([]TickerDTO, error) {
	var out []TickerDTO
	if err := c.getJSON(ctx, "/tickers?quotes=USD", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ticker fetches one ticker by upstream id.
func (c *PaprikaClient) Ticker(ctx context.Context, id string) (*TickerDTO, error) {
	var out TickerDTO
	if err := c.getJSON(ctx, "/tickers/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Events fetches the project events of one coin.
func (c *PaprikaClient) Events(ctx context.Context, id string) ([]EventDTO, error) {
	var out []EventDTO
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/events", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// historicalIntervals lists the sample spacings the upstream accepts.
var historicalIntervals = map[string]bool{
	"1h": true, "1d": true, "7d": true, "30d": true, "365d": true,
}

// Historical fetches price history for one coin since start. Unknown
// intervals fall back to daily.
func (c *PaprikaClient) Historical(ctx context.Context, id string, start time.Time, interval string) ([]HistoricalDTO, error) {
	if !historicalIntervals[interval] {
		interval = "1d"
	}
	path := fmt.Sprintf("/tickers/%s/historical?start=%d&interval=%s", url.PathEscape(id), start.Unix(), interval)
	var out []HistoricalDTO
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Markets fetches the per-exchange markets of one coin, flattened to
// aggregation records. Entries without a USD quote are skipped.
func (c *PaprikaClient) Markets(ctx context.Context, id string) ([]market.Record, error) {
	var dtos []marketDTO
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/markets", &dtos); err != nil {
		return nil, err
	}

	records := make([]market.Record, 0, len(dtos))
	for _, m := range dtos {
		usd, ok := m.Quotes["USD"]
		if !ok {
			continue
		}
		records = append(records, market.Record{
			BaseID:       m.BaseID,
			ExchangeID:   m.ExchangeID,
			ExchangeName: m.ExchangeName,
			Pair:         m.Pair,
			MarketURL:    m.MarketURL,
			Price:        domain.Float(usd.Price),
			Volume24h:    domain.Float(usd.Volume24h),
			Share:        domain.Float(m.AdjVolumeShare),
		})
	}
	return records, nil
}

// CoinSocial fetches one coin's detail page and rolls its extended
// links up into per-platform subscriber counts.
func (c *PaprikaClient) CoinSocial(ctx context.Context, id string) (SocialCounts, error) {
	var detail coinDetailDTO
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), &detail); err != nil {
		return SocialCounts{}, err
	}

	var counts SocialCounts
	for _, link := range detail.LinksExtended {
		switch link.Type {
		case "twitter":
			counts.Twitter += link.Stats.Followers
		case "reddit":
			counts.Reddit += link.Stats.Subscribers
		case "source_code":
			counts.Github += link.Stats.Stars
		case "telegram":
			counts.Telegram += link.Stats.Members
		}
	}
	return counts, nil
}

func (c *PaprikaClient) getJSON(ctx context.Context, path string, out any) error {
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

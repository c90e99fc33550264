package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/infra"
	"github.com/rainner/cc-stream/internal/store"
)

// SocialCounts carries subscriber totals per platform.
type SocialCounts struct {
	Twitter  int64 `json:"twitter"`
	Reddit   int64 `json:"reddit"`
	Github   int64 `json:"github"`
	Telegram int64 `json:"telegram"`
}

// SocialEntry is one coin's entry in the aggregated social data file,
// keyed by uniq slug.
type SocialEntry struct {
	Name   string       `json:"name"`
	Symbol string       `json:"symbol"`
	Rank   int          `json:"rank"`
	Social SocialCounts `json:"social"`
}

// SocialIngestor polls the aggregated social data endpoint and merges
// subscriber counts into existing coins. Slugs without a matching coin
// are ignored.
type SocialIngestor struct {
	url        string
	coins      *store.CoinStore
	httpClient *http.Client
}

// NewSocialIngestor wires the social poller.
func NewSocialIngestor(url string, coins *store.CoinStore) *SocialIngestor {
	return &SocialIngestor{
		url:   url,
		coins: coins,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Run executes one poll cycle.
func (s *SocialIngestor) Run(ctx context.Context) {
	entries, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("social fetch failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	merged := 0
	s.coins.Update(func(coins map[string]*domain.Coin) {
		for uniq, entry := range entries {
			coin, ok := coins[uniq]
			if !ok {
				continue
			}
			coin.ApplySubs(domain.SubsPatch{
				Twitter:  entry.Social.Twitter,
				Reddit:   entry.Social.Reddit,
				Github:   entry.Social.Github,
				Telegram: entry.Social.Telegram,
			})
			merged++
		}
	})
	slog.Info("social data merged", "entries", len(entries), "matched", merged)
}

func (s *SocialIngestor) fetch(ctx context.Context) (map[string]SocialEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries map[string]SocialEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode social data: %w", err)
	}
	return entries, nil
}

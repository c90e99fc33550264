package ingest

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/infra"
)

// MinRefetchSec is the floor under the feed refetch interval. Anything
// below it disables periodic refetching.
const MinRefetchSec = 60

// feedDoc covers both RSS (channel>item) and Atom (entry) documents.
type feedDoc struct {
	Items   []feedItem `xml:"channel>item"`
	Entries []feedItem `xml:"entry"`
}

type feedItem struct {
	Title   string     `xml:"title"`
	Links   []atomLink `xml:"link"`
	Author  feedAuthor `xml:"author"`
	Creator string     `xml:"creator"`
	PubDate string     `xml:"pubDate"`
	Updated string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Text string `xml:",chardata"`
}

type feedAuthor struct {
	Name string `xml:"name"`
	Text string `xml:",chardata"`
}

// twitterStatus is one tweet from a twitter timeline JSON payload.
type twitterStatus struct {
	IDStr     string `json:"id_str"`
	FullText  string `json:"full_text"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

// dateLayouts lists the timestamp formats seen across feed sources,
// tried in order.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon Jan 02 15:04:05 -0700 2006", // twitter created_at
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// FeedIngestor fetches every configured feed tab through the CORS
// relay, normalizes the items and keeps the merged list in memory.
// Per-source failures are recorded, never fatal: one dead feed must
// not empty the whole tab.
type FeedIngestor struct {
	tabs         []infra.FeedTab
	proxy        string
	newWindow    time.Duration
	sessionStart time.Time
	httpClient   *http.Client

	mu      sync.RWMutex
	entries []domain.FeedEntry
	errors  []string
}

// NewFeedIngestor wires the feed fetcher. sessionStart anchors the
// is-new classification for the lifetime of the process.
func NewFeedIngestor(tabs []infra.FeedTab, proxy string, newWindowSec int, sessionStart time.Time) *FeedIngestor {
	return &FeedIngestor{
		tabs:         tabs,
		proxy:        proxy,
		newWindow:    time.Duration(newWindowSec) * time.Second,
		sessionStart: sessionStart,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Run fetches all sources of all tabs and swaps in the merged result.
func (f *FeedIngestor) Run(ctx context.Context) {
	var entries []domain.FeedEntry
	var errs []string
	seen := make(map[string]bool)
	now := time.Now()

	for _, tab := range f.tabs {
		tabType := strings.ToLower(tab.Name)
		for _, src := range tab.URLs {
			items, err := f.fetchSource(ctx, tabType, tab.Icon, src)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %s: %v", tab.Name, src, err))
				slog.Warn("feed source failed", "tab", tab.Name, "url", src, "error", err)
				continue
			}
			for _, e := range items {
				// identical stories reposted across sources keep the
				// first occurrence only
				if e.Uniq == "" || seen[e.Uniq] {
					continue
				}
				seen[e.Uniq] = true
				e.ClassifyNew(f.sessionStart, now, f.newWindow)
				entries = append(entries, e)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})

	f.mu.Lock()
	f.entries = entries
	f.errors = errs
	f.mu.Unlock()

	slog.Info("feeds refreshed", "entries", len(entries), "failed_sources", len(errs))
}

// Entries returns a copy of the merged feed list, newest first.
func (f *FeedIngestor) Entries() []domain.FeedEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.FeedEntry(nil), f.entries...)
}

// Errors returns the per-source failure messages of the last run.
func (f *FeedIngestor) Errors() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.errors...)
}

// RefetchDelay maps the configured seconds to a task delay. Values
// below the floor run the fetch once and never again.
func RefetchDelay(sec int) time.Duration {
	if sec < MinRefetchSec {
		return 0
	}
	return time.Duration(sec) * time.Second
}

func (f *FeedIngestor) fetchSource(ctx context.Context, tabType, icon, src string) ([]domain.FeedEntry, error) {
	body, err := f.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if tabType == "twitter" {
		return parseTwitter(body, icon)
	}
	return parseFeed(body, tabType, icon, src)
}

func (f *FeedIngestor) fetch(ctx context.Context, src string) ([]byte, error) {
	target := src
	if f.proxy != "" {
		target = f.proxy + url.QueryEscape(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseFeed normalizes an RSS or Atom document.
func parseFeed(body []byte, tabType, icon, src string) ([]domain.FeedEntry, error) {
	var doc feedDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := doc.Items
	if len(items) == 0 {
		items = doc.Entries
	}

	tag := hostTag(src)
	out := make([]domain.FeedEntry, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		out = append(out, domain.FeedEntry{
			Uniq:      domain.Uniq(title),
			Type:      tabType,
			Tag:       tag,
			Icon:      icon,
			Title:     title,
			Link:      itemLink(it.Links),
			Author:    itemAuthor(it),
			Published: parseDate(firstNonEmpty(it.PubDate, it.Updated)),
		})
	}
	return out, nil
}

// parseTwitter normalizes a timeline JSON payload. Tweets carry no
// link of their own, so one is synthesized from user and id.
func parseTwitter(body []byte, icon string) ([]domain.FeedEntry, error) {
	var statuses []twitterStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, fmt.Errorf("failed to parse timeline: %w", err)
	}

	out := make([]domain.FeedEntry, 0, len(statuses))
	for _, s := range statuses {
		title := strings.TrimSpace(firstNonEmpty(s.FullText, s.Text))
		if title == "" || s.IDStr == "" {
			continue
		}
		out = append(out, domain.FeedEntry{
			Uniq:      domain.Uniq(title),
			Type:      "twitter",
			Tag:       "@" + s.User.ScreenName,
			Icon:      icon,
			Title:     title,
			Link:      fmt.Sprintf("https://twitter.com/%s/status/%s", s.User.ScreenName, s.IDStr),
			Author:    s.User.Name,
			Published: parseDate(s.CreatedAt),
		})
	}
	return out, nil
}

// itemLink prefers an href attribute (Atom) over element text (RSS).
func itemLink(links []atomLink) string {
	for _, l := range links {
		if l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if t := strings.TrimSpace(l.Text); t != "" {
			return t
		}
	}
	return ""
}

func itemAuthor(it feedItem) string {
	if n := strings.TrimSpace(it.Author.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(it.Author.Text); n != "" {
		return n
	}
	return strings.TrimSpace(it.Creator)
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func hostTag(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return src
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

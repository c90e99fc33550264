// socialfetch builds the aggregated social data file the main daemon
// polls: it walks the top ranked coins, pulls each one's subscriber
// counts and republishes them as a single JSON document, keyed by the
// same uniq slug the daemon derives from coin names.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rainner/cc-stream/internal/domain"
	"github.com/rainner/cc-stream/internal/infra"
	"github.com/rainner/cc-stream/internal/ingest"
)

const topCoins = 200

type fetcher struct {
	client  *ingest.PaprikaClient
	outFile string

	mu   sync.RWMutex
	data map[string]ingest.SocialEntry
}

// run rebuilds the whole document. Coins whose detail fetch fails keep
// their previous entry, so transient upstream errors never blank fields.
func (f *fetcher) run(ctx context.Context) {
	tickers, err := f.client.Tickers(ctx)
	if err != nil {
		slog.Warn("ticker list fetch failed", slog.Any("error", err))
		return
	}

	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Rank < tickers[j].Rank })
	if len(tickers) > topCoins {
		tickers = tickers[:topCoins]
	}

	next := make(map[string]ingest.SocialEntry, len(tickers))
	for _, t := range tickers {
		if ctx.Err() != nil {
			return
		}
		uniq := domain.Uniq(t.Name)
		if uniq == "" {
			continue
		}

		entry := ingest.SocialEntry{Name: t.Name, Symbol: t.Symbol, Rank: t.Rank}
		counts, err := f.client.CoinSocial(ctx, t.ID)
		if err != nil {
			slog.Debug("social detail fetch failed", slog.String("coin", t.ID), slog.Any("error", err))
			f.mu.RLock()
			prev, ok := f.data[uniq]
			f.mu.RUnlock()
			if !ok {
				continue
			}
			entry.Social = prev.Social
		} else {
			entry.Social = counts
		}
		next[uniq] = entry
	}

	f.mu.Lock()
	f.data = next
	f.mu.Unlock()

	if f.outFile != "" {
		if err := f.writeFile(next); err != nil {
			slog.Warn("failed to write social data file", slog.Any("error", err))
		}
	}
	slog.Info("social data rebuilt", slog.Int("coins", len(next)))
}

func (f *fetcher) writeFile(data map[string]ingest.SocialEntry) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.outFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.outFile)
}

func (f *fetcher) serve(c *gin.Context) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c.JSON(http.StatusOK, f.data)
}

func main() {
	restURL := flag.String("api", "https://api.coinpaprika.com/v1", "ranked-list API base URL")
	listen := flag.String("listen", ":8090", "listen address")
	outFile := flag.String("out", "coinsdata.json", "output file path, empty to disable")
	intervalSec := flag.Int("interval", 21600, "rebuild interval in seconds")
	flag.Parse()

	slog.SetDefault(infra.NewLogger(os.Getenv("CCSTREAM_LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &fetcher{
		client:  ingest.NewPaprikaClient(*restURL),
		outFile: *outFile,
		data:    make(map[string]ingest.SocialEntry),
	}

	task := infra.NewTask("socialfetch", time.Duration(*intervalSec)*time.Second, f.run)
	task.Start(ctx)
	defer task.Stop()

	router := gin.Default()
	router.Use(cors.Default())
	router.GET("/coinsdata.json", f.serve)

	httpServer := &http.Server{Addr: *listen, Handler: router}
	go func() {
		slog.Info("✅ social data server listening", slog.String("addr", *listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("👋 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rainner/cc-stream/internal/infra"
	"github.com/rainner/cc-stream/internal/ingest"
	"github.com/rainner/cc-stream/internal/quote"
	"github.com/rainner/cc-stream/internal/server"
	"github.com/rainner/cc-stream/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Configuration & Logging
	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		slog.Error("❌ Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(infra.NewLogger(cfg.Logging.Level))

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Persistent metadata (favorites, selected quote)
	metaPath := cfg.Storage.Path
	if metaPath == "" {
		metaPath = "ccstream.db"
	}
	meta, err := store.NewMetaStore(metaPath)
	if err != nil {
		slog.Error("❌ Failed to open metadata store", slog.Any("error", err))
		os.Exit(1)
	}
	defer meta.Close()

	// 4. Shared state
	coins := store.NewCoinStore()
	quotes := quote.NewTable()
	book := ingest.NewPairBook()

	// 5. Snapshot poller (the only coin creator)
	paprika := ingest.NewPaprikaClient(cfg.API.Paprika.RestURL)
	snapshot := ingest.NewSnapshotIngestor(paprika, coins, quotes, meta, cfg.API.Paprika.TopLimit)
	snapshotTask := infra.NewTask("snapshot", ingest.Interval(cfg.API.Paprika.PollIntervalSec), snapshot.Run)
	snapshotTask.Start(ctx)
	defer snapshotTask.Stop()
	slog.Info("✅ Snapshot poller started", slog.Int("interval_sec", cfg.API.Paprika.PollIntervalSec))

	// 6. Live price streams
	coincap := infra.NewWSWorker(ingest.NewCoincapStream(cfg.API.Coincap.WSURL, cfg.API.Coincap.Assets, coins, quotes))
	coincap.Start(ctx)
	defer coincap.Stop()

	compare := infra.NewWSWorker(ingest.NewCompareStream(
		cfg.API.Compare.WSURL, cfg.API.Compare.Exchange, cfg.API.Compare.Pairs, book, coins, quotes))
	compare.Start(ctx)
	defer compare.Stop()
	slog.Info("✅ Price streams started")

	// 7. Social subscriber counts
	social := ingest.NewSocialIngestor(cfg.API.Social.URL, coins)
	socialTask := infra.NewTask("social", ingest.Interval(cfg.API.Social.PollIntervalSec), social.Run)
	socialTask.Start(ctx)
	defer socialTask.Stop()

	// 8. News feeds
	feeds := ingest.NewFeedIngestor(cfg.Feeds.Tabs, cfg.Feeds.Proxy, cfg.Feeds.NewWindowSec, time.Now())
	feedTask := infra.NewTask("feeds", ingest.RefetchDelay(cfg.Feeds.RefetchSec), feeds.Run)
	feedTask.Start(ctx)
	defer feedTask.Stop()

	// 9. HTTP API
	api := server.New(coins, quotes, meta, feeds, book, paprika)
	api.SetFeedDefaults(cfg.Feeds.DisplayLimit, cfg.Feeds.SearchMinimum)
	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.Router(),
	}
	go func() {
		slog.Info("✅ API server listening", slog.String("addr", cfg.Server.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.Info("✨ cc-stream fully operational. Press Ctrl+C to exit.")
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("API server shutdown error", slog.Any("error", err))
	}
}

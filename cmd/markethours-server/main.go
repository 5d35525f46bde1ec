package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"markethours/internal/api"
	"markethours/internal/clock"
	"markethours/internal/config"
	"markethours/internal/domain"
	"markethours/internal/feed"
	"markethours/internal/history"
	"markethours/internal/tracker"
	"markethours/internal/util"
)

func main() {
	cfgPath := "config/markethours.yaml"
	if p := os.Getenv("MARKETHOURS_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var journal *history.SQLiteJournal
	if cfg.Storage.SQLitePath != "" {
		journal, err = history.Open(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		defer journal.Close()
	}

	clk := clock.SystemClock{}
	wsFeed := feed.NewWSFeed(cfg.Feed.URL, feed.WSFeedOptions{
		RatePerMinute: cfg.Feed.RateLimitPerMin,
		Logger:        logger,
	})
	defer wsFeed.Close()

	var srv *api.Server
	tr := tracker.New(clk, wsFeed, tracker.Options{
		Supplementary: cfg.Tracker.SupplementarySymbols,
		Logger:        logger,
		Notifier: func(changes map[string]bool) {
			at := clk.Now()
			srv.NotifyChanges(changes, at)
			if journal == nil {
				return
			}
			records := make([]domain.StatusChange, 0, len(changes))
			for sym, open := range changes {
				records = append(records, domain.StatusChange{Symbol: sym, IsOpen: open, At: at})
			}
			if err := journal.Record(ctx, records); err != nil {
				logger.Error("recording status changes", "error", err)
			}
		},
	})
	srv = api.NewServer(tr, journal, logger)

	source := tr.Initialise(ctx)
	defer tr.Stop()
	logger.Info("tracker initialised", "source", source)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("shutdown complete")
}

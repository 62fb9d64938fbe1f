package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pefman/cardstats/internal/dataset"
	"github.com/pefman/cardstats/internal/logging"
	"github.com/pefman/cardstats/internal/server"
	"github.com/pefman/cardstats/internal/stats"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Hour
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	feed := server.NewFeed(logger)
	tracker := stats.NewTracker()
	store := dataset.Open(cfg.Dataset,
		dataset.WithLogger(logger),
		dataset.WithObserver(feed.Publish),
		dataset.WithObserver(tracker.Observe),
	)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(store,
			server.WithLogger(logger),
			server.WithStats(tracker),
			server.WithFeed(feed),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, srv, feed, tracker, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done, then closes the feed and drains in-flight
// requests. Meanwhile the tracker's past daily counters are pruned hourly.
func run(ctx context.Context, srv *http.Server, feed *server.Feed, tracker *stats.Tracker, log *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("card stats API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		feed.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := tracker.PruneDaily(); n > 0 {
					log.Debug("stats: pruned daily counters", "days", n)
				}
			}
		}
	})
	return g.Wait()
}

// Command screend runs the sanctions-screening service: it loads config,
// performs the initial watchlist refresh, and serves the search, batch, and
// admin HTTP surface until signalled to stop.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/feeds"
	"github.com/sentriq/screend/pkg/index"
	"github.com/sentriq/screend/pkg/ratelimit"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/server"
	"github.com/sentriq/screend/pkg/trace"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("screend exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := config.NewStore(cfg.Scoring)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idx := index.New(store, logger)
	registry := feeds.DefaultRegistry(cfg.Feeds.SourceURLs, cfg.Feeds.RequestTimeout.Std())
	refresher := feeds.NewRefresher(registry, idx, cfg.Feeds.RefreshInterval.Std(), logger)

	// The initial load happens before the listener so /health flips to
	// healthy as soon as the port is open, but a failed upstream does not
	// block startup: the service comes up "starting" and retries via the
	// refresh endpoint or the scheduler.
	if err := refresher.Refresh(ctx); err != nil {
		logger.Warn("initial refresh incomplete", "error", err)
	}

	svc := search.New(idx, store, logger)
	exec := batch.NewExecutor(svc, cfg.BatchWorkers(), cfg.Batch.MaxBatchSize, logger)
	jobs := batch.NewJobStore(exec, cfg.Batch.JobTTL.Std(), cfg.Batch.JobTimeout.Std())
	traces := trace.NewStore(cfg.Trace.TTL.Std(), cfg.Trace.MaxRecords)
	limiter := ratelimit.New(cfg.RateLimit, logger)
	defer limiter.Close()

	go jobs.RunSweeper(ctx, time.Minute)
	go traces.RunSweeper(ctx, time.Minute)
	go refresher.RunPeriodic(ctx)

	if cfg.WatchConfig && configPath != "" {
		go func() {
			if err := config.WatchFile(ctx, configPath, store, logger); err != nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	_, app := server.New(server.Deps{
		Store:        store,
		Index:        idx,
		Search:       svc,
		Executor:     exec,
		Jobs:         jobs,
		Refresher:    refresher,
		Traces:       traces,
		Limiter:      limiter,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

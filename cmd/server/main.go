package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stocklane-platform/api/internal/app"
	"github.com/stocklane-platform/api/internal/config"
	"github.com/stocklane-platform/api/internal/db"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/progress"
	"github.com/stocklane-platform/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)

	// Single replica uses the in-process lock; REDIS_URL switches to the
	// shared lease so replicas cannot run concurrent imports for one supplier.
	var locker ingest.SupplierLocker = ingest.NewMemoryLocker()
	if cfg.RedisURL != "" {
		redisLocker, err := ingest.NewRedisLocker(cfg.RedisURL, cfg.ImportStaleAfter)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	sinks := []progress.Sink{progress.NewLogSink(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := progress.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaProgressTopic)
		if err != nil {
			logger.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	ing := ingest.New(st, locker, logger,
		ingest.WithChunkSize(cfg.ImportChunkSize),
		ingest.WithSinks(sinks...),
	)

	go reconcileStaleRuns(ctx, ing, cfg.ImportStaleAfter, logger)

	router, err := app.NewRouter(cfg, st, ing, logger)
	if err != nil {
		logger.Error("build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		logger.Info("api_started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// reconcileStaleRuns periodically fails runs abandoned in processing, for
// example after a crash mid-import. One sweep runs at startup so a restart
// cleans up immediately.
func reconcileStaleRuns(ctx context.Context, ing *ingest.Service, staleAfter time.Duration, logger *slog.Logger) {
	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := ing.ReconcileStaleRuns(sweepCtx, staleAfter); err != nil {
			logger.Error("reconcile stale runs", "error", err)
		}
	}

	sweep()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

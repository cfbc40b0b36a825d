package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devshark/starkbank/app/internal/archive"
	"github.com/devshark/starkbank/app/internal/migration"
	"github.com/devshark/starkbank/app/internal/repository"
	"github.com/devshark/starkbank/client"
	"github.com/devshark/starkbank/pkg/middlewares"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	readTimeout     = 5 * time.Second
)

func main() {
	os.Exit(start())
}

func start() int {
	exitCode := 0

	config := NewConfig()
	logger := newLogger(config.logLevel)

	defer func() { _ = logger.Sync() }()

	if err := config.validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))

		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	db, err := sql.Open("postgres", config.postgres.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))

		return 1
	}
	defer db.Close()

	applied, err := migration.NewMigrator(db, config.migrationPath).WithCustomLogger(logger).Up(ctx)
	if err != nil {
		logger.Error("failed to migrate database", zap.Error(err))

		return 1
	}

	logger.Info("database migrated successfully", zap.Int("applied", applied))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// metrics only see network calls; the logger sees cache hits too
	mws := []middlewares.Middleware{middlewares.NewMetrics(registry).Middleware()}

	if config.redis.Addr != "" {
		cache := redis.NewClient(&redis.Options{Addr: config.redis.Addr})
		defer cache.Close()

		mws = append(mws, middlewares.NewRedisCacheMiddleware(cache, config.redis.Expiration, client.IsTransferLogLookup, logger))

		logger.Info("caching transfer log lookups", zap.String("redis", config.redis.Addr))
	}

	mws = append(mws, middlewares.NewLoggingMiddleware(logger))

	bank := client.NewClient(config.apiURL,
		client.WithHTTPClient(&http.Client{Timeout: config.httpTimeout}),
		client.WithAuthenticator(client.AccessID(config.accessID)),
		client.WithLogger(logger),
		client.WithRetry(config.maxAttempts),
		client.WithMiddlewares(mws...),
	)

	repo := repository.NewPostgresRepository(db).WithCustomLogger(logger)
	archiver := archive.NewArchiver(bank.TransferLogs(), repo).WithCustomLogger(logger)

	var metricsServer *http.Server
	if config.metricsAddr != "" {
		metricsServer = newMetricsServer(config.metricsAddr, registry)

		go func() {
			logger.Info("serving metrics", zap.String("addr", config.metricsAddr))

			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	params := archive.Params{After: config.archiveAfter, Limit: config.limit(), Types: config.archiveTypes}

	if err := run(ctx, archiver, params, config.interval, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("archive failed", zap.Error(err))

		exitCode = 1
	}

	if count, err := repo.CountTransferLogs(context.Background()); err == nil {
		latest, _ := repo.LatestCreated(context.Background())
		logger.Info("archive size", zap.Int64("transfer_logs", count), zap.Time("latest_created", latest))
	}

	if metricsServer != nil {
		// if Shutdown takes too long, cancel the context
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", zap.Error(err))
		}
	}

	logger.Info("gracefully stopped")

	return exitCode
}

// run archives once, then every interval until ctx is done. A zero interval runs once.
func run(ctx context.Context, archiver *archive.Archiver, params archive.Params, interval time.Duration, logger *zap.Logger) error {
	if _, err := archiver.Run(ctx, params); err != nil {
		return err
	}

	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := archiver.Run(ctx, params); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}

				logger.Warn("archive run failed, retrying on next tick", zap.Error(err))
			}
		}
	}
}

func newMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}
}

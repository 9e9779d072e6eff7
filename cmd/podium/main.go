package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/arenascope/podium/internal/adapters/http/api"
	"github.com/arenascope/podium/internal/adapters/rankcache"
	"github.com/arenascope/podium/internal/adapters/scorestore"
	app "github.com/arenascope/podium/internal/app"
	"github.com/arenascope/podium/internal/config"
	"github.com/arenascope/podium/internal/domain/popularity"
	"github.com/arenascope/podium/internal/reconciler"
	"github.com/arenascope/podium/pkg/logger"
	"github.com/arenascope/podium/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	cacheTimeout := time.Duration(cfg.CacheTimeoutMS) * time.Millisecond
	storeTimeout := time.Duration(cfg.StoreTimeoutMS) * time.Millisecond

	// Durable score store: Postgres when a DSN is configured, otherwise
	// the in-memory store for local runs.
	var store scorestore.Store
	if cfg.PostgresDSN != "" {
		pg, err := scorestore.NewPostgresStore(ctx, cfg.PostgresDSN, scorestore.WithTimeout(storeTimeout))
		if err != nil {
			os.Stderr.WriteString("failed to connect postgres: " + err.Error() + "\n")
			return
		}
		if cfg.RunSchemaSync {
			if err := pg.EnsureSchema(ctx); err != nil {
				os.Stderr.WriteString("schema sync failed: " + err.Error() + "\n")
				return
			}
			loggerInstance.Info(ctx, "schema sync complete")
		}
		store = pg
		loggerInstance.Info(ctx, "using postgres score store")
	} else {
		store = scorestore.NewMemoryStore()
		loggerInstance.Warn(ctx, "no postgres_dsn configured, scores are not durable across restarts")
	}

	// One Redis pool backs both the rank cache and the popularity
	// classifier.
	pool := rankcache.NewPool(cfg.RedisAddr, cacheTimeout)
	defer pool.Close()
	rankCache := rankcache.NewRedisCache(pool)
	classifier := popularity.NewRedisClassifier(pool, cfg.PopularityThreshold)

	// Create and start the engine with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithStore(store),
		app.WithRankCache(rankCache),
		app.WithClassifier(classifier),
		app.WithPopularityThreshold(cfg.PopularityThreshold),
		app.WithMaxHotGames(cfg.MaxInMemoryGames),
		app.WithCacheTimeout(cacheTimeout),
		app.WithStoreTimeout(storeTimeout),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Periodic cache-to-store reconciliation.
	rec := reconciler.New(rankCache, store,
		reconciler.WithInterval(time.Duration(cfg.PersistIntervalMinutes)*time.Minute),
		reconciler.WithWorkers(cfg.ReconcileWorkers),
		reconciler.WithFlushTimeout(time.Duration(cfg.FlushTimeoutMS)*time.Millisecond),
		reconciler.WithLogger(loggerInstance.Named("reconciler")),
	)
	rec.Start(ctx)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	var serverOpts []api.ServerOption
	serverOpts = append(serverOpts, api.WithLimits(cfg.DefaultLimit, cfg.MaxLimit))
	if cfg.AuthSecret != "" {
		serverOpts = append(serverOpts, api.WithVerifier(api.NewHMACVerifier(cfg.AuthSecret)))
	} else {
		loggerInstance.Warn(ctx, "no auth_secret configured, API routes are open")
	}

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, serverOpts...)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	// Stop the ticker loop, then flush the cache one last time so the
	// store is as fresh as possible at exit.
	rec.Stop()
	rec.RunOnce(shutdownCtx)

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

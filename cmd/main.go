package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/placementcell/eligibility/internal/adapters/http/api"
	"github.com/placementcell/eligibility/internal/adapters/http/swagger"
	"github.com/placementcell/eligibility/internal/adapters/mq/publisher"
	"github.com/placementcell/eligibility/internal/adapters/repository"
	app "github.com/placementcell/eligibility/internal/app"
	"github.com/placementcell/eligibility/internal/config"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Named("main")

	svc := app.New(serviceOptions(cfg)...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1) //nolint:gocritic // exitAfterDefer
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service stop failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// serviceOptions maps the loaded configuration onto service options.
func serviceOptions(cfg *config.Config) []app.Option {
	opts := []app.Option{
		app.WithLogger(logger.Named("service")),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithWorkerCount(cfg.EventWorkers),
		app.WithSweepTimeout(cfg.SweepTimeout()),
	}
	if cfg.SeedFile != "" {
		opts = append(opts, app.WithSeedFile(cfg.SeedFile))
	}
	if cfg.Store == config.StoreMySQL {
		opts = append(opts, app.WithMySQL(cfg.MySQLDSN,
			repository.WithMaxOpenConns(cfg.MySQLMaxOpenConns),
			repository.WithMaxIdleConns(cfg.MySQLMaxIdleConns),
			repository.WithConnMaxLifetime(cfg.ConnMaxLifetime()),
			repository.WithLogLevel(cfg.MySQLLogLevel),
			repository.WithTracing(cfg.MySQLTracing),
			repository.WithAutoMigrate(cfg.MySQLAutoMigrate),
			repository.WithLogger(logger.Named("repository")),
		))
	}
	if cfg.AMQPURL != "" {
		opts = append(opts, app.WithAMQP(cfg.AMQPURL,
			publisher.WithExchange(cfg.AMQPExchange),
			publisher.WithRoutingKey(cfg.AMQPRoutingKey),
		))
	}
	return opts
}

// startSystemMetricsUpdater updates runtime metrics until ctx is done.
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

// startServiceMetricsUpdater refreshes queue and worker gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

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

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)

	// GetStats already refreshes the queue gauge.
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if active, ok := stats["activeWorkers"].(int); ok {
		metrics.UpdateWorkerActiveCount(active)
	}
}

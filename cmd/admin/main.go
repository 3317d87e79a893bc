// Package main is the entry point for the CeBee Predict admin server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/internal/transport"
	"github.com/cebeepredict/admin/internal/ui"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "", "path to configuration file (defaults plus CEBEE_* env when empty)")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, observability.ServiceName, version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(prometheus.DefaultRegisterer)
	}

	// Step 4: Load definitions, validate, build registry.
	defs, err := definition.NewLoader().LoadConfigured(cfg.Definitions.Builtin, cfg.Definitions.Directories)
	if err != nil {
		logger.Error("definition loading failed", zap.Error(err))
		return 1
	}
	if verrs := definition.NewValidator().Validate(defs); len(verrs) > 0 {
		for _, ve := range verrs {
			logger.Error("definition validation error", zap.String("error", ve.Error()))
		}
		logger.Error("definition validation failed", zap.Int("errors", len(verrs)))
		return 1
	}
	registry := definition.NewRegistry(defs)
	metrics.SetDefinitionsLoaded(float64(registry.Count()))

	// Step 5: Open the session store.
	store, closeStore, err := session.Open(cfg.Session)
	if err != nil {
		logger.Error("session store initialization failed", zap.Error(err))
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("session store close error", zap.Error(err))
		}
	}()

	// Step 6: Build the backend client and providers.
	client := apiclient.New(cfg.Backend,
		apiclient.WithMetrics(metrics),
		apiclient.WithLogger(logger),
	)
	resources := resource.NewProvider(registry, cfg.Listing,
		resource.WithMetrics(metrics),
		resource.WithLogger(logger),
	)
	content := cms.NewService(registry, logger)
	auth := session.NewAuthenticator(metrics, logger)
	cookies := session.NewCookies(store, cfg.Session)

	pages := ui.NewHandler(
		registry, resources, content, auth, cookies, client,
		table.NewFormatter(cfg.Listing.Locale),
		logger,
		cfg.Session.Secure,
	)

	// Step 7: Build HTTP router.
	readinessChecks := observability.ReadinessChecks{
		DefinitionsLoaded: func() bool { return registry.Count() > 0 },
		Backend:           client,
	}
	if hc, ok := store.(observability.HealthChecker); ok {
		readinessChecks.SessionStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Registry:       registry,
		Resources:      resources,
		Content:        content,
		Auth:           auth,
		Cookies:        cookies,
		Client:         client,
		Pages:          pages,
		Metrics:        metrics,
		Logger:         logger,
		HealthHandler:  observability.HandleHealth(),
		ReadyHandler:   observability.HandleReady(readinessChecks),
		MetricsHandler: observability.Handler(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	// Step 8: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("backend", client.BaseURL()),
		zap.String("session_driver", cfg.Session.Driver),
		zap.Int("definitions", registry.Count()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

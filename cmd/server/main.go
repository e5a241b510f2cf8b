package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // IANA zones for descriptors on hosts without zoneinfo

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/config"
	"github.com/rezkam/cashflow/internal/infrastructure/health"
	httpserver "github.com/rezkam/cashflow/internal/infrastructure/http"
	"github.com/rezkam/cashflow/internal/infrastructure/http/handler"
	"github.com/rezkam/cashflow/internal/infrastructure/observability"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// telemetryShutdownTimeout bounds flushing of each OTel provider on exit.
const telemetryShutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		// slog may not be initialized if config fails
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obsCfg := observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    cfg.Observability.LogLevel,
	}

	lp, logger, err := observability.InitLogger(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer shutdownProvider("logger", lp.Shutdown)
	slog.SetDefault(logger)

	tp, err := observability.InitTracerProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init tracer provider: %w", err)
	}
	defer shutdownProvider("tracer", tp.Shutdown)

	mp, err := observability.InitMeterProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init meter provider: %w", err)
	}
	defer shutdownProvider("meter", mp.Shutdown)

	slog.InfoContext(ctx, "starting cashflow service",
		"storage", cfg.Storage.Type,
		"otel_enabled", cfg.Observability.OTelEnabled)

	repo, store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	svc := finance.NewService(repo, recurrence.NewEngine(nil), finance.Config{
		DefaultPageSize: cfg.Finance.DefaultPageSize,
		MaxPageSize:     cfg.Finance.MaxPageSize,
		PreviewDays:     cfg.Finance.PreviewDays,
		MaxWindowDays:   cfg.Finance.MaxWindowDays,
	})

	apiServer := httpserver.NewAPIServer(handler.NewRouter(svc), httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	var healthServer *health.Server
	if cfg.GRPC.Enabled {
		healthServer, err = health.NewServer(ctx, cfg.GRPC)
		if err != nil {
			closeStore(store)
			return fmt.Errorf("failed to create gRPC health server: %w", err)
		}
	}

	errResult := make(chan error, 2)
	go func() {
		if err := apiServer.Start(); err != nil {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()
	if healthServer != nil {
		go func() {
			if err := healthServer.Serve(); err != nil {
				errResult <- fmt.Errorf("failed to serve gRPC health: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
	case runErr = <-errResult:
		slog.ErrorContext(ctx, "server failed, shutting down", "error", runErr)
	}

	// The main context is already cancelled, so shutdown gets its own deadline.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.WarnContext(shutdownCtx, "HTTP server shutdown incomplete", "error", err)
	}
	var hs shutdowner
	if healthServer != nil {
		hs = healthServer
	}
	newCleanup(shutdownCtx, hs, store)()

	return runErr
}

// shutdownProvider flushes one telemetry provider with a bounded timeout.
func shutdownProvider(name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown "+name+" provider", "error", err)
	}
}

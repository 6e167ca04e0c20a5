package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/warekit/scantrack/internal/api"
	appscanning "github.com/warekit/scantrack/internal/app/scanning"
	"github.com/warekit/scantrack/internal/config/credentials"
	"github.com/warekit/scantrack/internal/config/credentials/memory"
	"github.com/warekit/scantrack/internal/config/loaders"
	"github.com/warekit/scantrack/internal/infra/storage/gateway"
	"github.com/warekit/scantrack/internal/infra/storage/pool"
	"github.com/warekit/scantrack/internal/infra/storage/postgres"
	"github.com/warekit/scantrack/internal/validation"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

var build = "develop"

const serviceType = "scantrack-server"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SCANTRACK-%s", hostname)
	lg := logger.New(os.Stdout, logLevel(), svcName, traceIDFn)

	ctx := context.Background()
	if err := run(ctx, lg); err != nil {
		lg.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func logLevel() logger.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func run(ctx context.Context, lg *logger.Logger) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	lg.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Configuration
	loader := loaders.NewViperLoader(os.Getenv("CONFIG_FILE"))
	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if r := cfg.Validate(); !r.Ok() {
		return fmt.Errorf("invalid configuration: %s", r.Message)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support
	lg.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTelemetry(lg, otel.Config{
		ServiceName:      serviceType,
		ExporterEndpoint: cfg.Telemetry.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/health":    {},
			"/v1/readiness": {},
		},
		Probability:      cfg.Telemetry.Probability,
		InsecureExporter: true,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer teardown(ctx)

	tracer := traceProvider.Tracer(serviceType)

	// -------------------------------------------------------------------------
	// Database Pool
	lg.Info(ctx, "startup", "status", "initializing database pool",
		"server", cfg.Database.Server, "database", cfg.Database.Database)

	var credStore credentials.Store = memory.NewCredentialStore(cfg.Database)
	creds, err := credStore.Resolve(cfg.Database.AuthType)
	if err != nil {
		return fmt.Errorf("resolving database credentials: %w", err)
	}

	p, err := pool.ConnectWithRetry(ctx, pool.Config{
		DSN:         cfg.DSN(creds),
		MinConns:    cfg.Pool.MinConns,
		MaxConns:    cfg.Pool.MaxConns,
		MaxIdleTime: cfg.Pool.MaxIdleTime,
	}, lg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer p.Close(context.Background())

	db := gateway.New(p, lg)

	// -------------------------------------------------------------------------
	// Repositories and Services
	jobStore := postgres.NewJobTypeStore(db, tracer)
	subStore := postgres.NewSubJobStore(db, tracer)
	depStore := postgres.NewDependencyStore(db, tracer)
	scanStore := postgres.NewScanLogStore(db, tracer)
	auditStore := postgres.NewAuditLogStore(db, tracer)

	scanValidator := validation.NewScanValidator(jobStore, subStore)
	importValidator := validation.NewImportValidator(jobStore, subStore)

	svcs := api.Services{
		Scans:        appscanning.NewScanService(lg, tracer, scanValidator, scanStore, jobStore, subStore, depStore, auditStore),
		Jobs:         appscanning.NewJobService(lg, tracer, jobStore, subStore, scanStore),
		Dependencies: appscanning.NewDependencyService(lg, tracer, jobStore, depStore),
		Imports:      appscanning.NewImportService(lg, tracer, importValidator, scanStore),
		Reports:      appscanning.NewReportService(lg, tracer, scanStore, jobStore, subStore),
		Audit:        appscanning.NewAuditService(lg, tracer, auditStore),
	}

	// -------------------------------------------------------------------------
	// Start API Service
	lg.Info(ctx, "startup", "status", "initializing API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := api.NewServer(cfg, lg, tracer, svcs, p)

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start(serverCtx)
	}()

	// -------------------------------------------------------------------------
	// Shutdown
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		lg.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig.String())
		cancel()
		if err := <-serverErrors; err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		lg.Info(ctx, "shutdown", "status", "shutdown complete")
	}

	return nil
}

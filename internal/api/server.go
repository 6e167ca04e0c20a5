// Package api exposes the scanning system over HTTP: scan intake, history,
// job and dependency administration, imports, reports, and the audit trail.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	appscanning "github.com/warekit/scantrack/internal/app/scanning"
	"github.com/warekit/scantrack/internal/config"
	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/infra/storage/pool"
	"github.com/warekit/scantrack/pkg/common"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// ScanProcessor handles scan intake and scan record maintenance.
type ScanProcessor interface {
	ProcessScan(ctx context.Context, req scanning.ScanRequest) (*scanning.ScanResult, error)
	UpdateScanRecord(ctx context.Context, id int64, notes, userID string) error
	DeleteScanRecord(ctx context.Context, id int64, userID string) error
	GetScanHistory(ctx context.Context, filter scanning.HistoryFilter) ([]scanning.HistoryEntry, error)
	GetTodaySummary(ctx context.Context, jobID int, subJobID *int, notesFilter string) (*appscanning.TodaySummary, error)
}

// JobAdmin handles job type and sub-job administration.
type JobAdmin interface {
	ListJobs(ctx context.Context) ([]scanning.JobType, error)
	GetJob(ctx context.Context, id int) (*scanning.JobType, error)
	CreateJob(ctx context.Context, name string) (int, error)
	RenameJob(ctx context.Context, id int, name string) error
	DeleteJob(ctx context.Context, id int) error
	ListSubJobs(ctx context.Context, mainJobID int, activeOnly bool) ([]scanning.SubJobType, error)
	CreateSubJob(ctx context.Context, mainJobID int, name, description string) (int, error)
	UpdateSubJob(ctx context.Context, id int, name, description string) error
	DeleteSubJob(ctx context.Context, id int) error
	ActivateSubJob(ctx context.Context, id int) error
}

// DependencyAdmin handles the prerequisite graph.
type DependencyAdmin interface {
	Add(ctx context.Context, jobID, requiredJobID int) error
	Remove(ctx context.Context, jobID, requiredJobID int) error
	Save(ctx context.Context, jobID int, requiredJobIDs []int) error
	RequiredJobsWithStatus(ctx context.Context, jobID int, todayOnly bool) ([]scanning.RequiredJobStatus, error)
	List(ctx context.Context) ([]scanning.DependencyEdge, error)
}

// Importer handles bulk scan imports.
type Importer interface {
	ImportScans(ctx context.Context, rows []map[string]string, userID string) (*appscanning.ImportResult, error)
}

// Reporter builds daily reports.
type Reporter interface {
	Generate(ctx context.Context, filter scanning.ReportFilter) (*appscanning.Report, error)
}

// AuditReader reads the audit trail.
type AuditReader interface {
	History(ctx context.Context, filter scanning.AuditFilter) ([]scanning.AuditLogEntry, error)
	Summary(ctx context.Context, date time.Time) (*scanning.AuditSummary, error)
}

// Services bundles everything the HTTP handlers call into.
type Services struct {
	Scans        ScanProcessor
	Jobs         JobAdmin
	Dependencies DependencyAdmin
	Imports      Importer
	Reports      Reporter
	Audit        AuditReader
}

// Server is the HTTP front end.
type Server struct {
	cfg    *config.Config
	log    *logger.Logger
	tracer trace.Tracer
	router *chi.Mux
	svcs   Services
	pool   *pool.ConnectionPool
}

// NewServer wires the routes and middleware. The pool is only consulted for
// readiness reporting; all data access goes through the services.
func NewServer(cfg *config.Config, log *logger.Logger, tracer trace.Tracer, svcs Services, p *pool.ConnectionPool) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otel.Middleware(tracer))
	r.Use(loggerMiddleware(log))
	r.Use(rateLimitMiddleware(common.NewRateLimiter(100, 200)))
	r.Use(middleware.Recoverer)

	s := &Server{cfg: cfg, log: log, tracer: tracer, router: r, svcs: svcs, pool: p}
	s.routes()
	return s
}

func loggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func rateLimitMiddleware(rl *common.RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := rl.Wait(r.Context()); err != nil {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)

		r.Post("/scans", s.handleCreateScan)
		r.Get("/scans", s.handleScanHistory)
		r.Get("/scans/summary", s.handleTodaySummary)
		r.Patch("/scans/{id}", s.handleUpdateScan)
		r.Delete("/scans/{id}", s.handleDeleteScan)

		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Put("/jobs/{id}", s.handleRenameJob)
		r.Delete("/jobs/{id}", s.handleDeleteJob)

		r.Get("/jobs/{id}/sub-jobs", s.handleListSubJobs)
		r.Post("/jobs/{id}/sub-jobs", s.handleCreateSubJob)
		r.Put("/sub-jobs/{id}", s.handleUpdateSubJob)
		r.Delete("/sub-jobs/{id}", s.handleDeleteSubJob)
		r.Post("/sub-jobs/{id}/activate", s.handleActivateSubJob)

		r.Get("/dependencies", s.handleListDependencies)
		r.Post("/dependencies", s.handleAddDependency)
		r.Delete("/dependencies", s.handleRemoveDependency)
		r.Put("/jobs/{id}/dependencies", s.handleSaveDependencies)
		r.Get("/jobs/{id}/dependencies/status", s.handleDependencyStatus)

		r.Get("/reports", s.handleReport)
		r.Post("/imports", s.handleImport)

		r.Get("/audit", s.handleAuditHistory)
		r.Get("/audit/summary", s.handleAuditSummary)
	})
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is canceled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(shutdownCtx, "failed to shutdown server", "error", err)
		}
	}()

	s.log.Info(ctx, "starting server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

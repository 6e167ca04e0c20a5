package scanning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// Report is a daily scan report for one job: a summary block followed by the
// matching scan rows.
type Report struct {
	ReportDate  time.Time
	JobName     string
	SubJobName  string // "all" when the report spans every sub-job
	NotesFilter string
	TotalCount  int
	GeneratedAt time.Time

	Rows []scanning.ScanLog
}

// ReportService builds daily scan reports.
type ReportService struct {
	log    *logger.Logger
	tracer trace.Tracer

	scans scanning.ScanLogRepository
	jobs  scanning.JobTypeRepository
	subs  scanning.SubJobRepository
}

// NewReportService creates the reporting service.
func NewReportService(
	log *logger.Logger,
	tracer trace.Tracer,
	scans scanning.ScanLogRepository,
	jobs scanning.JobTypeRepository,
	subs scanning.SubJobRepository,
) *ReportService {
	return &ReportService{log: log, tracer: tracer, scans: scans, jobs: jobs, subs: subs}
}

// Generate builds the report for one job and date, optionally narrowed to a
// sub-job and a notes substring.
func (s *ReportService) Generate(ctx context.Context, filter scanning.ReportFilter) (*Report, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "report_service.generate",
		attribute.Int("job_id", filter.JobID),
		attribute.String("date", filter.Date.Format("2006-01-02")),
	)
	defer span.End()

	if filter.Date.IsZero() {
		return nil, fmt.Errorf("report date is required")
	}

	job, err := s.jobs.FindByID(ctx, filter.JobID)
	if err != nil {
		return nil, fmt.Errorf("loading job %d: %w", filter.JobID, err)
	}
	if job == nil {
		return nil, scanning.ErrJobTypeNotFound
	}

	report := &Report{
		ReportDate:  filter.Date,
		JobName:     job.Name,
		SubJobName:  "all",
		NotesFilter: filter.Notes,
		GeneratedAt: time.Now(),
	}

	if filter.SubJobID != nil {
		sub, err := s.subs.FindByID(ctx, *filter.SubJobID)
		if err != nil {
			return nil, fmt.Errorf("loading sub-job %d: %w", *filter.SubJobID, err)
		}
		if sub == nil {
			return nil, scanning.ErrSubJobNotFound
		}
		report.SubJobName = sub.Name
	}

	rows, err := s.scans.Report(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("querying report rows: %w", err)
	}
	report.Rows = rows
	report.TotalCount = len(rows)

	s.log.Info(ctx, "report generated",
		"job_id", filter.JobID, "date", filter.Date.Format("2006-01-02"), "rows", report.TotalCount)
	return report, nil
}

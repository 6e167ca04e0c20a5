// Package scanning contains the application services that orchestrate the
// warehouse scanning workflows: scan intake, dependency management, job and
// sub-job administration, bulk imports, reports, and the audit trail.
package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/validation"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// defaultHistoryLimit caps history queries that do not ask for a limit.
const defaultHistoryLimit = 50

// systemUserID is recorded when a scan arrives without an operator id.
const systemUserID = "system"

// ScanService is the only component that mutates scan records. Every scan
// attempt passes its gates in order: validation, dependency check, duplicate
// check, persist. Edits and deletions go through the same service so an
// audit entry is written for every mutation.
type ScanService struct {
	log    *logger.Logger
	tracer trace.Tracer

	validator *validation.ScanValidator

	scans scanning.ScanLogRepository
	jobs  scanning.JobTypeRepository
	subs  scanning.SubJobRepository
	deps  scanning.DependencyRepository
	audit scanning.AuditLogRepository
}

// NewScanService creates the scan orchestration service.
func NewScanService(
	log *logger.Logger,
	tracer trace.Tracer,
	validator *validation.ScanValidator,
	scans scanning.ScanLogRepository,
	jobs scanning.JobTypeRepository,
	subs scanning.SubJobRepository,
	deps scanning.DependencyRepository,
	audit scanning.AuditLogRepository,
) *ScanService {
	return &ScanService{
		log:       log,
		tracer:    tracer,
		validator: validator,
		scans:     scans,
		jobs:      jobs,
		subs:      subs,
		deps:      deps,
		audit:     audit,
	}
}

// ProcessScan runs one scan attempt through the acceptance gates. Policy
// rejections (validation, missing prerequisite, duplicate) come back inside
// the ScanResult; the error return is reserved for infrastructure failures,
// which callers may retry.
func (s *ScanService) ProcessScan(ctx context.Context, req scanning.ScanRequest) (*scanning.ScanResult, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "scan_service.process_scan",
		attribute.String("barcode", req.Barcode),
		attribute.Int("job_id", req.JobID),
	)
	defer span.End()

	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.UserID == "" {
		req.UserID = systemUserID
	}

	vr, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("validating scan: %w", err)
	}
	if !vr.Ok() {
		s.log.Debug(ctx, "scan rejected by validation", "barcode", req.Barcode, "errors", vr.Errors)
		return scanning.ValidationRejection(vr.Message, vr.Errors), nil
	}

	required, err := s.deps.RequiredJobs(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("loading dependencies: %w", err)
	}
	for _, rj := range required {
		scanned, err := s.scans.ExistsForJob(ctx, req.Barcode, rj.JobID)
		if err != nil {
			return nil, fmt.Errorf("checking prerequisite %q: %w", rj.JobName, err)
		}
		if !scanned {
			s.log.Debug(ctx, "scan rejected by dependency",
				"barcode", req.Barcode, "missing_job", rj.JobName)
			return scanning.DependencyRejection(rj.JobName), nil
		}
	}

	existing, err := s.scans.FindDuplicate(ctx, req.Barcode, req.JobID, req.SubJobID)
	if err != nil {
		return nil, fmt.Errorf("checking duplicate: %w", err)
	}
	if existing != nil {
		// Duplicates are a routine outcome on the scanning floor; no
		// alarm-level logging.
		s.log.Debug(ctx, "scan rejected as duplicate", "barcode", req.Barcode, "existing_id", existing.ID)
		return scanning.DuplicateRejection(existing), nil
	}

	record := &scanning.ScanLog{
		Barcode:  req.Barcode,
		JobID:    req.JobID,
		SubJobID: req.SubJobID,
		UserID:   req.UserID,
		Notes:    strings.TrimSpace(req.Notes),
	}
	if err := s.scans.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting scan: %w", err)
	}

	s.log.Info(ctx, "scan accepted",
		"barcode", record.Barcode, "job_id", record.JobID, "scan_id", record.ID)
	return scanning.AcceptedScan(record), nil
}

// UpdateScanRecord edits a scan's notes and writes an audit entry carrying
// the old and new values.
func (s *ScanService) UpdateScanRecord(ctx context.Context, id int64, notes, userID string) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "scan_service.update_scan_record",
		attribute.Int64("scan_id", id))
	defer span.End()

	record, err := s.scans.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading scan %d: %w", id, err)
	}
	if record == nil {
		return scanning.ErrScanNotFound
	}

	notes = strings.TrimSpace(notes)
	if _, err := s.scans.UpdateNotes(ctx, id, notes); err != nil {
		return fmt.Errorf("updating scan %d: %w", id, err)
	}

	entry := scanning.NewAuditLogEntry(id, scanning.AuditActionUpdate,
		map[string]any{"notes": record.Notes},
		map[string]any{"notes": notes},
		userID)
	if err := s.audit.Insert(ctx, entry); err != nil {
		return fmt.Errorf("recording audit entry for scan %d: %w", id, err)
	}

	s.log.Info(ctx, "scan record updated", "scan_id", id, "changed_by", userID)
	return nil
}

// DeleteScanRecord removes a scan after verifying no other scan of the same
// barcode depends on this record's job, then writes a deletion audit entry
// with a snapshot of the removed row.
func (s *ScanService) DeleteScanRecord(ctx context.Context, id int64, userID string) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "scan_service.delete_scan_record",
		attribute.Int64("scan_id", id))
	defer span.End()

	record, err := s.scans.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading scan %d: %w", id, err)
	}
	if record == nil {
		return scanning.ErrScanNotFound
	}

	dependents, err := s.deps.DependentJobs(ctx, record.JobID)
	if err != nil {
		return fmt.Errorf("loading dependents of job %d: %w", record.JobID, err)
	}
	for _, dep := range dependents {
		scanned, err := s.scans.ExistsForJob(ctx, record.Barcode, dep.JobID)
		if err != nil {
			return fmt.Errorf("checking dependent scans: %w", err)
		}
		if scanned {
			return fmt.Errorf("%w: %q was scanned for barcode %s",
				scanning.ErrScanHasDependents, dep.JobName, record.Barcode)
		}
	}

	if _, err := s.scans.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting scan %d: %w", id, err)
	}

	entry := scanning.NewAuditLogEntry(id, scanning.AuditActionDelete,
		map[string]any{
			"barcode":    record.Barcode,
			"scan_date":  record.ScanDate,
			"job_id":     record.JobID,
			"sub_job_id": record.SubJobID,
			"user_id":    record.UserID,
			"notes":      record.Notes,
		},
		nil, userID)
	if err := s.audit.Insert(ctx, entry); err != nil {
		return fmt.Errorf("recording audit entry for scan %d: %w", id, err)
	}

	s.log.Info(ctx, "scan record deleted", "scan_id", id, "changed_by", userID)
	return nil
}

// GetScanHistory returns scans matching the filter, newest first, with a
// default limit applied when the filter does not set one.
func (s *ScanService) GetScanHistory(ctx context.Context, filter scanning.HistoryFilter) ([]scanning.HistoryEntry, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "scan_service.get_scan_history")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	entries, err := s.scans.SearchHistory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	return entries, nil
}

// TodaySummary aggregates today's scans for one job, optionally narrowed to
// a sub-job and a notes substring.
type TodaySummary struct {
	TotalCount  int
	JobName     string
	SubJobName  string
	NotesFilter string
	Date        time.Time
}

// GetTodaySummary counts today's scans for a job.
func (s *ScanService) GetTodaySummary(ctx context.Context, jobID int, subJobID *int, notesFilter string) (*TodaySummary, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "scan_service.get_today_summary",
		attribute.Int("job_id", jobID))
	defer span.End()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading job %d: %w", jobID, err)
	}
	if job == nil {
		return nil, scanning.ErrJobTypeNotFound
	}

	summary := &TodaySummary{
		JobName:     job.Name,
		NotesFilter: strings.TrimSpace(notesFilter),
		Date:        time.Now(),
	}

	if subJobID != nil {
		sub, err := s.subs.FindByID(ctx, *subJobID)
		if err != nil {
			return nil, fmt.Errorf("loading sub-job %d: %w", *subJobID, err)
		}
		if sub == nil {
			return nil, scanning.ErrSubJobNotFound
		}
		summary.SubJobName = sub.Name
	}

	count, err := s.scans.TodayCount(ctx, jobID, subJobID, summary.NotesFilter)
	if err != nil {
		return nil, fmt.Errorf("counting today's scans: %w", err)
	}
	summary.TotalCount = count
	return summary, nil
}

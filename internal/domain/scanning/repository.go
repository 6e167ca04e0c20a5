package scanning

import (
	"context"
	"time"
)

// Repositories are pure data access: no business validation, and "not found"
// is a normal (nil, nil) return rather than an error. Only infrastructure
// failures surface as errors.

// JobTypeRepository defines the persistence operations for job types.
type JobTypeRepository interface {
	// FindByID returns the job type or nil when none exists.
	FindByID(ctx context.Context, id int) (*JobType, error)

	// FindByName returns the job type or nil when none exists.
	FindByName(ctx context.Context, name string) (*JobType, error)

	// List returns every job type ordered by name.
	List(ctx context.Context) ([]JobType, error)

	// Create inserts a job type and returns its id.
	Create(ctx context.Context, name string) (int, error)

	// Rename changes a job type's name.
	Rename(ctx context.Context, id int, name string) error

	// Deactivate soft-deletes a job type that is still referenced by scans.
	Deactivate(ctx context.Context, id int) error

	// Delete removes an unreferenced job type.
	Delete(ctx context.Context, id int) error

	// NameExists reports whether another job type already uses the name.
	// A non-zero excludeID leaves that row out of the check.
	NameExists(ctx context.Context, name string, excludeID int) (bool, error)
}

// SubJobRepository defines the persistence operations for sub-job types.
type SubJobRepository interface {
	// FindByID returns the sub-job or nil when none exists.
	FindByID(ctx context.Context, id int) (*SubJobType, error)

	// ListByMainJob returns a main job's sub-jobs ordered by name.
	ListByMainJob(ctx context.Context, mainJobID int, activeOnly bool) ([]SubJobType, error)

	// ListAllActive returns every active sub-job across all main jobs.
	ListAllActive(ctx context.Context) ([]SubJobType, error)

	// Create inserts a sub-job under the main job and returns its id.
	Create(ctx context.Context, mainJobID int, name, description string) (int, error)

	// Update changes a sub-job's name and description.
	Update(ctx context.Context, id int, name, description string) error

	// SoftDelete marks a sub-job inactive while keeping it for history.
	SoftDelete(ctx context.Context, id int) error

	// Activate re-enables a soft-deleted sub-job.
	Activate(ctx context.Context, id int) error

	// Delete removes a sub-job that no scan references.
	Delete(ctx context.Context, id int) error

	// DuplicateExists reports whether the main job already has an active
	// sub-job with the name. A non-zero excludeID leaves that row out.
	DuplicateExists(ctx context.Context, mainJobID int, name string, excludeID int) (bool, error)
}

// DependencyRepository defines the persistence operations for dependency edges
// between job types.
type DependencyRepository interface {
	// RequiredJobs returns the jobs that must be scanned before jobID,
	// ordered by name.
	RequiredJobs(ctx context.Context, jobID int) ([]RequiredJob, error)

	// RequiredJobsWithScanStatus additionally counts scans recorded against
	// each required job, optionally restricted to today.
	RequiredJobsWithScanStatus(ctx context.Context, jobID int, todayOnly bool) ([]RequiredJobStatus, error)

	// DependentJobs returns the jobs that list requiredJobID as a
	// prerequisite (the inverse edge set).
	DependentJobs(ctx context.Context, requiredJobID int) ([]RequiredJob, error)

	// Add inserts a dependency edge.
	Add(ctx context.Context, jobID, requiredJobID int) error

	// Remove deletes one dependency edge and returns the affected row count.
	Remove(ctx context.Context, jobID, requiredJobID int) (int64, error)

	// RemoveAll deletes every dependency of jobID and returns the count removed.
	RemoveAll(ctx context.Context, jobID int) (int64, error)

	// Exists reports whether the exact edge is present.
	Exists(ctx context.Context, jobID, requiredJobID int) (bool, error)

	// List returns every dependency edge with joined job names.
	List(ctx context.Context) ([]DependencyEdge, error)
}

// ReportFilter selects the scan rows included in a report.
type ReportFilter struct {
	Date     time.Time
	JobID    int
	SubJobID *int
	Notes    string
}

// ScanLogRepository defines the persistence operations for scan records.
type ScanLogRepository interface {
	// Insert persists a scan. The record's ID and server-assigned ScanDate
	// are filled in on success.
	Insert(ctx context.Context, record *ScanLog) error

	// FindByID returns the scan or nil when none exists.
	FindByID(ctx context.Context, id int64) (*ScanLog, error)

	// FindDuplicate returns the most recent scan matching the exact
	// (barcode, job, sub-job) triple. A nil sub-job matches only NULL rows.
	FindDuplicate(ctx context.Context, barcode string, jobID int, subJobID *int) (*ScanLog, error)

	// ExistsForJob reports whether any scan exists for the barcode against
	// the job, regardless of sub-job.
	ExistsForJob(ctx context.Context, barcode string, jobID int) (bool, error)

	// SearchHistory returns scans matching the filter, newest first.
	SearchHistory(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)

	// TodayCount counts today's scans for a job, optionally narrowed to a
	// sub-job and a notes substring.
	TodayCount(ctx context.Context, jobID int, subJobID *int, notesFilter string) (int, error)

	// CountByJob counts scans against a job. Zero times mean no date bound.
	CountByJob(ctx context.Context, jobID int, start, end time.Time) (int, error)

	// CountBySubJob counts scans referencing a sub-job.
	CountBySubJob(ctx context.Context, subJobID int) (int, error)

	// Report returns the rows for a daily report, newest first.
	Report(ctx context.Context, filter ReportFilter) ([]ScanLog, error)

	// UpdateNotes edits a scan's notes and returns the affected row count.
	UpdateNotes(ctx context.Context, id int64, notes string) (int64, error)

	// Delete removes a scan and returns the affected row count.
	Delete(ctx context.Context, id int64) (int64, error)
}

// AuditLogRepository defines the persistence operations for the audit trail.
type AuditLogRepository interface {
	// Insert persists an audit trail entry.
	Insert(ctx context.Context, entry AuditLogEntry) error

	// History returns audit entries matching the filter, newest first.
	History(ctx context.Context, filter AuditFilter) ([]AuditLogEntry, error)

	// Summary aggregates the changes recorded on the given date.
	Summary(ctx context.Context, date time.Time) (*AuditSummary, error)
}

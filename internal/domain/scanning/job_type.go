// Package scanning defines the core domain model for warehouse barcode
// scanning: job types, sub-job types, the dependency graph between jobs,
// scan records, and the audit trail for changes to them.
package scanning

import "time"

// JobType represents a main job category operators scan barcodes against
// (e.g. "1.Release", "3.Outbound"). Job types referenced by scan records are
// never physically deleted, only deactivated.
type JobType struct {
	ID        int
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubJobType is a refinement of a JobType. The parent link is immutable once
// created; deactivated sub-jobs are kept for historical scans but are not
// offered for new ones.
type SubJobType struct {
	ID          int
	MainJobID   int
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequiredJob is a dependency edge joined with the required job's name, used
// when reporting which prerequisite is missing.
type RequiredJob struct {
	JobID   int
	JobName string
}

// RequiredJobStatus pairs a required job with the number of scans recorded
// against it, for dependency dashboards.
type RequiredJobStatus struct {
	JobID     int
	JobName   string
	ScanCount int
}

// DependencyEdge is a fully joined dependency row for administrative listings.
type DependencyEdge struct {
	ID              int
	JobID           int
	JobName         string
	RequiredJobID   int
	RequiredJobName string
	CreatedAt       time.Time
}

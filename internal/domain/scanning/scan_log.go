package scanning

import (
	"time"

	"github.com/google/uuid"
)

// ScanLog is a single accepted barcode scan. Rows are immutable after insert
// except for Notes, which may be edited with an audit trail entry.
type ScanLog struct {
	ID       int64
	Barcode  string
	ScanDate time.Time
	JobID    int
	SubJobID *int
	UserID   string
	Notes    string

	// Joined display names, populated by history/report queries.
	JobName    string
	SubJobName string
}

// HistoryEntry is a scan log row prepared for history displays: joined names
// and a freshness marker for scans recorded within the last few minutes.
type HistoryEntry struct {
	ID         int64
	Barcode    string
	ScanDate   time.Time
	JobName    string
	SubJobName string
	UserID     string
	Notes      string
	Recent     bool
}

// HistoryFilter narrows a scan history search. Zero values mean "no filter".
type HistoryFilter struct {
	Barcode   string
	JobID     int
	SubJobID  int
	UserID    string
	Notes     string
	StartDate time.Time
	EndDate   time.Time
	TodayOnly bool
	Limit     int
}

// AuditAction enumerates the mutations recorded in the audit trail.
type AuditAction string

const (
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

func (a AuditAction) String() string { return string(a) }

// Valid reports whether the action is one of the recorded kinds.
func (a AuditAction) Valid() bool {
	return a == AuditActionUpdate || a == AuditActionDelete
}

// AuditLogEntry records who changed what on a scan record and when. Old and
// new values are stored as JSON snapshots of the changed fields.
type AuditLogEntry struct {
	ID           int64
	EntryID      uuid.UUID
	ScanRecordID int64
	Action       AuditAction
	OldValues    map[string]any
	NewValues    map[string]any
	ChangedBy    string
	ChangeDate   time.Time
	Notes        string
}

// NewAuditLogEntry builds an audit trail entry for a scan record mutation.
func NewAuditLogEntry(scanRecordID int64, action AuditAction, oldValues, newValues map[string]any, changedBy string) AuditLogEntry {
	return AuditLogEntry{
		EntryID:      uuid.New(),
		ScanRecordID: scanRecordID,
		Action:       action,
		OldValues:    oldValues,
		NewValues:    newValues,
		ChangedBy:    changedBy,
	}
}

// AuditFilter narrows an audit history search. Zero values mean "no filter".
type AuditFilter struct {
	ScanRecordID int64
	Action       AuditAction
	ChangedBy    string
	Date         time.Time
	Limit        int
}

// AuditSummary aggregates one day's worth of scan record changes.
type AuditSummary struct {
	Date          time.Time
	TotalChanges  int
	Updates       int
	Deletes       int
	UniqueUsers   int
	UniqueRecords int
}

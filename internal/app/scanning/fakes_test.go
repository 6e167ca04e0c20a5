package scanning

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/pkg/common/logger"
)

var errInsertRejected = errors.New("insert rejected")

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

// The fakes embed the repository interfaces so each test only overrides the
// methods its code path touches. Calling anything else panics, which is the
// point: it flags a path the test did not mean to exercise.

type fakeJobTypeRepo struct {
	scanning.JobTypeRepository

	jobs map[int]*scanning.JobType
	err  error

	nameTaken   bool
	created     []string
	deactivated []int
	deleted     []int
}

func (f *fakeJobTypeRepo) FindByID(_ context.Context, id int) (*scanning.JobType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs[id], nil
}

func (f *fakeJobTypeRepo) NameExists(_ context.Context, _ string, _ int) (bool, error) {
	return f.nameTaken, f.err
}

func (f *fakeJobTypeRepo) Create(_ context.Context, name string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, name)
	return 100 + len(f.created), nil
}

func (f *fakeJobTypeRepo) Rename(_ context.Context, _ int, _ string) error {
	return f.err
}

func (f *fakeJobTypeRepo) Deactivate(_ context.Context, id int) error {
	f.deactivated = append(f.deactivated, id)
	return f.err
}

func (f *fakeJobTypeRepo) Delete(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeSubJobRepo struct {
	scanning.SubJobRepository

	subs map[int]*scanning.SubJobType
	err  error

	dupExists   bool
	softDeleted []int
	deleted     []int
	activated   []int
}

func (f *fakeSubJobRepo) FindByID(_ context.Context, id int) (*scanning.SubJobType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[id], nil
}

func (f *fakeSubJobRepo) DuplicateExists(_ context.Context, _ int, _ string, _ int) (bool, error) {
	return f.dupExists, f.err
}

func (f *fakeSubJobRepo) Create(_ context.Context, _ int, _, _ string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 200, nil
}

func (f *fakeSubJobRepo) SoftDelete(_ context.Context, id int) error {
	f.softDeleted = append(f.softDeleted, id)
	return f.err
}

func (f *fakeSubJobRepo) Delete(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeSubJobRepo) Activate(_ context.Context, id int) error {
	f.activated = append(f.activated, id)
	return f.err
}

type fakeDependencyRepo struct {
	scanning.DependencyRepository

	// required maps job id to its prerequisite jobs.
	required map[int][]scanning.RequiredJob
	// dependents maps job id to the jobs that require it.
	dependents map[int][]scanning.RequiredJob
	err        error

	added   [][2]int
	removed [][2]int

	removeAffected    int64
	removeAllAffected int64
	clearedJobs       []int
}

func (f *fakeDependencyRepo) RequiredJobs(_ context.Context, jobID int) ([]scanning.RequiredJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.required[jobID], nil
}

func (f *fakeDependencyRepo) DependentJobs(_ context.Context, jobID int) ([]scanning.RequiredJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.dependents[jobID], nil
}

func (f *fakeDependencyRepo) Exists(_ context.Context, jobID, requiredJobID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, rj := range f.required[jobID] {
		if rj.JobID == requiredJobID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDependencyRepo) Add(_ context.Context, jobID, requiredJobID int) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, [2]int{jobID, requiredJobID})
	if f.required == nil {
		f.required = map[int][]scanning.RequiredJob{}
	}
	f.required[jobID] = append(f.required[jobID], scanning.RequiredJob{JobID: requiredJobID})
	return nil
}

func (f *fakeDependencyRepo) Remove(_ context.Context, jobID, requiredJobID int) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.removed = append(f.removed, [2]int{jobID, requiredJobID})
	return f.removeAffected, nil
}

func (f *fakeDependencyRepo) RemoveAll(_ context.Context, jobID int) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.clearedJobs = append(f.clearedJobs, jobID)
	delete(f.required, jobID)
	return f.removeAllAffected, nil
}

type fakeScanLogRepo struct {
	scanning.ScanLogRepository

	records map[int64]*scanning.ScanLog
	// scannedJobs maps barcode to the set of job ids already scanned.
	scannedJobs map[string]map[int]bool
	duplicate   *scanning.ScanLog
	err         error

	inserted []*scanning.ScanLog
	// insertFailBarcodes makes Insert fail for the listed barcodes only.
	insertFailBarcodes map[string]bool

	history       []scanning.HistoryEntry
	historyFilter scanning.HistoryFilter
	reportRows    []scanning.ScanLog

	todayCount    int
	countByJob    int
	countBySubJob int

	updatedNotes map[int64]string
	deletedIDs   []int64
}

func (f *fakeScanLogRepo) Insert(_ context.Context, record *scanning.ScanLog) error {
	if f.err != nil {
		return f.err
	}
	if f.insertFailBarcodes[record.Barcode] {
		return errInsertRejected
	}
	record.ID = int64(1000 + len(f.inserted))
	record.ScanDate = time.Now()
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeScanLogRepo) FindByID(_ context.Context, id int64) (*scanning.ScanLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func (f *fakeScanLogRepo) FindDuplicate(_ context.Context, _ string, _ int, _ *int) (*scanning.ScanLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.duplicate, nil
}

func (f *fakeScanLogRepo) ExistsForJob(_ context.Context, barcode string, jobID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.scannedJobs[barcode][jobID], nil
}

func (f *fakeScanLogRepo) SearchHistory(_ context.Context, filter scanning.HistoryFilter) ([]scanning.HistoryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.historyFilter = filter
	return f.history, nil
}

func (f *fakeScanLogRepo) TodayCount(_ context.Context, _ int, _ *int, _ string) (int, error) {
	return f.todayCount, f.err
}

func (f *fakeScanLogRepo) CountByJob(_ context.Context, _ int, _, _ time.Time) (int, error) {
	return f.countByJob, f.err
}

func (f *fakeScanLogRepo) CountBySubJob(_ context.Context, _ int) (int, error) {
	return f.countBySubJob, f.err
}

func (f *fakeScanLogRepo) Report(_ context.Context, _ scanning.ReportFilter) ([]scanning.ScanLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reportRows, nil
}

func (f *fakeScanLogRepo) UpdateNotes(_ context.Context, id int64, notes string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.updatedNotes == nil {
		f.updatedNotes = map[int64]string{}
	}
	f.updatedNotes[id] = notes
	return 1, nil
}

func (f *fakeScanLogRepo) Delete(_ context.Context, id int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return 1, nil
}

type fakeAuditRepo struct {
	scanning.AuditLogRepository

	entries []scanning.AuditLogEntry
	err     error

	history []scanning.AuditLogEntry
	summary *scanning.AuditSummary
}

func (f *fakeAuditRepo) Insert(_ context.Context, entry scanning.AuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) History(_ context.Context, _ scanning.AuditFilter) ([]scanning.AuditLogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakeAuditRepo) Summary(_ context.Context, date time.Time) (*scanning.AuditSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func intPtr(v int) *int { return &v }

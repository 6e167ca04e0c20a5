package scanning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/validation"
)

func newScanService(scans *fakeScanLogRepo, jobs *fakeJobTypeRepo, subs *fakeSubJobRepo, deps *fakeDependencyRepo, audit *fakeAuditRepo) *ScanService {
	if scans == nil {
		scans = &fakeScanLogRepo{}
	}
	if jobs == nil {
		jobs = &fakeJobTypeRepo{jobs: map[int]*scanning.JobType{
			1: {ID: 1, Name: "1.Release", IsActive: true},
			2: {ID: 2, Name: "2.Pick", IsActive: true},
		}}
	}
	if subs == nil {
		subs = &fakeSubJobRepo{subs: map[int]*scanning.SubJobType{
			10: {ID: 10, MainJobID: 1, Name: "Standard", IsActive: true},
		}}
	}
	if deps == nil {
		deps = &fakeDependencyRepo{}
	}
	if audit == nil {
		audit = &fakeAuditRepo{}
	}
	v := validation.NewScanValidator(jobs, subs)
	return NewScanService(testLogger(), testTracer(), v, scans, jobs, subs, deps, audit)
}

func TestProcessScanAccepted(t *testing.T) {
	scans := &fakeScanLogRepo{}
	svc := newScanService(scans, nil, nil, nil, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "  PKG-001  ",
		JobID:    1,
		SubJobID: intPtr(10),
	})
	require.NoError(t, err)
	require.True(t, result.Accepted())

	require.Len(t, scans.inserted, 1)
	record := scans.inserted[0]
	assert.Equal(t, "PKG-001", record.Barcode, "barcode should be trimmed before persisting")
	assert.Equal(t, "system", record.UserID, "missing operator defaults to system")
	assert.NotZero(t, record.ID)
	assert.Same(t, record, result.Record)
}

func TestProcessScanValidationRejection(t *testing.T) {
	scans := &fakeScanLogRepo{}
	svc := newScanService(scans, nil, nil, nil, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "ab", // below minimum length
		JobID:    1,
		SubJobID: intPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanRejectedValidation, result.Outcome)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, scans.inserted, "rejected scans must not be persisted")
}

func TestProcessScanDependencyRejection(t *testing.T) {
	deps := &fakeDependencyRepo{required: map[int][]scanning.RequiredJob{
		2: {{JobID: 1, JobName: "1.Release"}},
	}}
	scans := &fakeScanLogRepo{scannedJobs: map[string]map[int]bool{}}
	subs := &fakeSubJobRepo{subs: map[int]*scanning.SubJobType{
		20: {ID: 20, MainJobID: 2, Name: "Standard", IsActive: true},
	}}
	svc := newScanService(scans, nil, subs, deps, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "PKG-001",
		JobID:    2,
		SubJobID: intPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanRejectedDependency, result.Outcome)
	assert.Equal(t, "1.Release", result.MissingJob)
	assert.Empty(t, scans.inserted)
}

func TestProcessScanDependencySatisfied(t *testing.T) {
	deps := &fakeDependencyRepo{required: map[int][]scanning.RequiredJob{
		2: {{JobID: 1, JobName: "1.Release"}},
	}}
	scans := &fakeScanLogRepo{scannedJobs: map[string]map[int]bool{
		"PKG-001": {1: true},
	}}
	subs := &fakeSubJobRepo{subs: map[int]*scanning.SubJobType{
		20: {ID: 20, MainJobID: 2, Name: "Standard", IsActive: true},
	}}
	svc := newScanService(scans, nil, subs, deps, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "PKG-001",
		JobID:    2,
		SubJobID: intPtr(20),
	})
	require.NoError(t, err)
	assert.True(t, result.Accepted())
}

func TestProcessScanDuplicateRejection(t *testing.T) {
	existing := &scanning.ScanLog{ID: 42, Barcode: "PKG-001", JobID: 1, JobName: "1.Release"}
	scans := &fakeScanLogRepo{duplicate: existing}
	svc := newScanService(scans, nil, nil, nil, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "PKG-001",
		JobID:    1,
		SubJobID: intPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanRejectedDuplicate, result.Outcome)
	assert.Same(t, existing, result.Duplicate)
	assert.Empty(t, scans.inserted)
}

func TestProcessScanInfrastructureFailure(t *testing.T) {
	scans := &fakeScanLogRepo{err: assert.AnError}
	svc := newScanService(scans, nil, nil, nil, nil)

	result, err := svc.ProcessScan(context.Background(), scanning.ScanRequest{
		Barcode:  "PKG-001",
		JobID:    1,
		SubJobID: intPtr(10),
	})
	require.Error(t, err)
	assert.Nil(t, result, "infrastructure failures must not masquerade as rejections")
}

func TestUpdateScanRecord(t *testing.T) {
	scans := &fakeScanLogRepo{records: map[int64]*scanning.ScanLog{
		7: {ID: 7, Barcode: "PKG-001", JobID: 1, Notes: "old note"},
	}}
	audit := &fakeAuditRepo{}
	svc := newScanService(scans, nil, nil, nil, audit)

	err := svc.UpdateScanRecord(context.Background(), 7, "new note", "alice")
	require.NoError(t, err)

	assert.Equal(t, "new note", scans.updatedNotes[7])
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, scanning.AuditActionUpdate, entry.Action)
	assert.Equal(t, int64(7), entry.ScanRecordID)
	assert.Equal(t, "alice", entry.ChangedBy)
	assert.Equal(t, map[string]any{"notes": "old note"}, entry.OldValues)
	assert.Equal(t, map[string]any{"notes": "new note"}, entry.NewValues)
}

func TestUpdateScanRecordNotFound(t *testing.T) {
	svc := newScanService(&fakeScanLogRepo{}, nil, nil, nil, nil)

	err := svc.UpdateScanRecord(context.Background(), 99, "note", "alice")
	assert.ErrorIs(t, err, scanning.ErrScanNotFound)
}

func TestDeleteScanRecord(t *testing.T) {
	scans := &fakeScanLogRepo{records: map[int64]*scanning.ScanLog{
		7: {ID: 7, Barcode: "PKG-001", JobID: 1, UserID: "bob", Notes: "n"},
	}}
	audit := &fakeAuditRepo{}
	svc := newScanService(scans, nil, nil, nil, audit)

	err := svc.DeleteScanRecord(context.Background(), 7, "alice")
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, scans.deletedIDs)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, scanning.AuditActionDelete, entry.Action)
	assert.Equal(t, "PKG-001", entry.OldValues["barcode"], "deletion audit keeps a snapshot of the row")
	assert.Nil(t, entry.NewValues)
}

func TestDeleteScanRecordBlockedByDependents(t *testing.T) {
	scans := &fakeScanLogRepo{
		records: map[int64]*scanning.ScanLog{
			7: {ID: 7, Barcode: "PKG-001", JobID: 1},
		},
		scannedJobs: map[string]map[int]bool{
			"PKG-001": {2: true},
		},
	}
	deps := &fakeDependencyRepo{dependents: map[int][]scanning.RequiredJob{
		1: {{JobID: 2, JobName: "2.Pick"}},
	}}
	svc := newScanService(scans, nil, nil, deps, nil)

	err := svc.DeleteScanRecord(context.Background(), 7, "alice")
	require.ErrorIs(t, err, scanning.ErrScanHasDependents)
	assert.Contains(t, err.Error(), "2.Pick")
	assert.Empty(t, scans.deletedIDs)
}

func TestGetScanHistoryDefaultLimit(t *testing.T) {
	scans := &fakeScanLogRepo{}
	svc := newScanService(scans, nil, nil, nil, nil)

	_, err := svc.GetScanHistory(context.Background(), scanning.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, scans.historyFilter.Limit)

	_, err = svc.GetScanHistory(context.Background(), scanning.HistoryFilter{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, scans.historyFilter.Limit)
}

func TestGetTodaySummary(t *testing.T) {
	scans := &fakeScanLogRepo{todayCount: 12}
	svc := newScanService(scans, nil, nil, nil, nil)

	summary, err := svc.GetTodaySummary(context.Background(), 1, intPtr(10), "  priority ")
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalCount)
	assert.Equal(t, "1.Release", summary.JobName)
	assert.Equal(t, "Standard", summary.SubJobName)
	assert.Equal(t, "priority", summary.NotesFilter)
}

func TestGetTodaySummaryUnknownJob(t *testing.T) {
	svc := newScanService(nil, nil, nil, nil, nil)

	_, err := svc.GetTodaySummary(context.Background(), 99, nil, "")
	assert.ErrorIs(t, err, scanning.ErrJobTypeNotFound)
}

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/infra/storage"
)

func newTestScan(barcode string, jobID int, subJobID *int) *scanning.ScanLog {
	return &scanning.ScanLog{
		Barcode:  barcode,
		JobID:    jobID,
		SubJobID: subJobID,
		UserID:   "operator1",
	}
}

func TestScanLogStore_InsertAssignsIDAndDate(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)

	record := newTestScan("PKG-0001", jobID, nil)
	record.Notes = "first pass"
	require.NoError(t, scans.Insert(ctx, record))

	assert.Positive(t, record.ID)
	assert.WithinDuration(t, time.Now(), record.ScanDate, time.Minute)

	loaded, err := scans.FindByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "PKG-0001", loaded.Barcode)
	assert.Equal(t, "Packing", loaded.JobName)
	assert.Equal(t, "first pass", loaded.Notes)
	assert.Nil(t, loaded.SubJobID)
}

func TestScanLogStore_FindDuplicateNullSubJobIsDistinct(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)
	subID, err := subs.Create(ctx, jobID, "Boxing", "")
	require.NoError(t, err)

	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0001", jobID, intPtr(subID))))

	// Same barcode and job with the concrete sub-job collides.
	dup, err := scans.FindDuplicate(ctx, "PKG-0001", jobID, intPtr(subID))
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "Boxing", dup.SubJobName)

	// A NULL sub-job is its own triple value: no collision.
	dup, err = scans.FindDuplicate(ctx, "PKG-0001", jobID, nil)
	require.NoError(t, err)
	assert.Nil(t, dup)

	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0001", jobID, nil)))
	dup, err = scans.FindDuplicate(ctx, "PKG-0001", jobID, nil)
	require.NoError(t, err)
	require.NotNil(t, dup)
}

func TestScanLogStore_ExistsForJobIgnoresSubJob(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Release")
	require.NoError(t, err)
	subID, err := subs.Create(ctx, jobID, "Stage", "")
	require.NoError(t, err)

	exists, err := scans.ExistsForJob(ctx, "PKG-0001", jobID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0001", jobID, intPtr(subID))))

	exists, err = scans.ExistsForJob(ctx, "PKG-0001", jobID)
	require.NoError(t, err)
	assert.True(t, exists, "any sub-job satisfies the job-level dependency check")
}

func TestScanLogStore_SearchHistoryFilters(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	packingID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)
	releaseID, err := jobs.Create(ctx, "Release")
	require.NoError(t, err)

	first := newTestScan("PKG-0001", packingID, nil)
	first.Notes = "urgent order"
	require.NoError(t, scans.Insert(ctx, first))
	second := newTestScan("BOX-0002", releaseID, nil)
	second.UserID = "operator2"
	require.NoError(t, scans.Insert(ctx, second))

	all, err := scans.SearchHistory(ctx, scanning.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Recent, "a scan made moments ago is marked recent")

	byBarcode, err := scans.SearchHistory(ctx, scanning.HistoryFilter{Barcode: "pkg"})
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)
	assert.Equal(t, "PKG-0001", byBarcode[0].Barcode)

	byJob, err := scans.SearchHistory(ctx, scanning.HistoryFilter{JobID: releaseID})
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, "Release", byJob[0].JobName)

	byUser, err := scans.SearchHistory(ctx, scanning.HistoryFilter{UserID: "operator2"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	byNotes, err := scans.SearchHistory(ctx, scanning.HistoryFilter{Notes: "urgent"})
	require.NoError(t, err)
	require.Len(t, byNotes, 1)

	today, err := scans.SearchHistory(ctx, scanning.HistoryFilter{TodayOnly: true})
	require.NoError(t, err)
	assert.Len(t, today, 2)

	limited, err := scans.SearchHistory(ctx, scanning.HistoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestScanLogStore_Counts(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)
	subID, err := subs.Create(ctx, jobID, "Boxing", "")
	require.NoError(t, err)

	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0001", jobID, intPtr(subID))))
	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0002", jobID, nil)))

	todayCount, err := scans.TodayCount(ctx, jobID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, todayCount)

	todayBySubJob, err := scans.TodayCount(ctx, jobID, intPtr(subID), "")
	require.NoError(t, err)
	assert.Equal(t, 1, todayBySubJob)

	total, err := scans.CountByJob(ctx, jobID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	none, err := scans.CountByJob(ctx, jobID, time.Now().Add(time.Hour), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, none)

	bySubJob, err := scans.CountBySubJob(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, 1, bySubJob)
}

func TestScanLogStore_Report(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)
	otherID, err := jobs.Create(ctx, "Release")
	require.NoError(t, err)

	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0001", jobID, nil)))
	require.NoError(t, scans.Insert(ctx, newTestScan("PKG-0002", otherID, nil)))

	rows, err := scans.Report(ctx, scanning.ReportFilter{Date: time.Now(), JobID: jobID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PKG-0001", rows[0].Barcode)

	empty, err := scans.Report(ctx, scanning.ReportFilter{Date: time.Now().AddDate(0, 0, -1)})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestScanLogStore_UpdateNotesAndDelete(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)

	record := newTestScan("PKG-0001", jobID, nil)
	require.NoError(t, scans.Insert(ctx, record))

	affected, err := scans.UpdateNotes(ctx, record.ID, "rechecked")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	loaded, err := scans.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "rechecked", loaded.Notes)

	affected, err = scans.Delete(ctx, record.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	gone, err := scans.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	affected, err = scans.Delete(ctx, record.ID)
	require.NoError(t, err)
	assert.Zero(t, affected, "deleting a missing row affects nothing")
}

func TestAuditLogStore_InsertAndHistory(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	audits := NewAuditLogStore(db, storage.NoOpTracer())

	entry := scanning.NewAuditLogEntry(42, scanning.AuditActionUpdate,
		map[string]any{"notes": "before"},
		map[string]any{"notes": "after"},
		"operator1")
	require.NoError(t, audits.Insert(ctx, entry))

	deletion := scanning.NewAuditLogEntry(42, scanning.AuditActionDelete,
		map[string]any{"barcode": "PKG-0001"}, nil, "supervisor")
	require.NoError(t, audits.Insert(ctx, deletion))

	history, err := audits.History(ctx, scanning.AuditFilter{ScanRecordID: 42})
	require.NoError(t, err)
	require.Len(t, history, 2)

	updates, err := audits.History(ctx, scanning.AuditFilter{Action: scanning.AuditActionUpdate})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "after", updates[0].NewValues["notes"])
	assert.Equal(t, "before", updates[0].OldValues["notes"])
	assert.Equal(t, entry.EntryID, updates[0].EntryID)

	byUser, err := audits.History(ctx, scanning.AuditFilter{ChangedBy: "supervisor"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Nil(t, byUser[0].NewValues)
}

func TestAuditLogStore_Summary(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	audits := NewAuditLogStore(db, storage.NoOpTracer())

	for i := int64(1); i <= 3; i++ {
		entry := scanning.NewAuditLogEntry(i, scanning.AuditActionUpdate,
			nil, map[string]any{"notes": "x"}, "operator1")
		require.NoError(t, audits.Insert(ctx, entry))
	}
	del := scanning.NewAuditLogEntry(1, scanning.AuditActionDelete, map[string]any{"barcode": "B"}, nil, "supervisor")
	require.NoError(t, audits.Insert(ctx, del))

	summary, err := audits.Summary(ctx, time.Now())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.TotalChanges)
	assert.Equal(t, 3, summary.Updates)
	assert.Equal(t, 1, summary.Deletes)
	assert.Equal(t, 2, summary.UniqueUsers)
	assert.Equal(t, 3, summary.UniqueRecords)
}

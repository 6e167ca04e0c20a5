package scanning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

func newReportService(scans *fakeScanLogRepo) *ReportService {
	jobs := &fakeJobTypeRepo{jobs: map[int]*scanning.JobType{
		1: {ID: 1, Name: "1.Release", IsActive: true},
	}}
	subs := &fakeSubJobRepo{subs: map[int]*scanning.SubJobType{
		10: {ID: 10, MainJobID: 1, Name: "Standard", IsActive: true},
	}}
	if scans == nil {
		scans = &fakeScanLogRepo{}
	}
	return NewReportService(testLogger(), testTracer(), scans, jobs, subs)
}

func TestGenerateReport(t *testing.T) {
	scans := &fakeScanLogRepo{reportRows: []scanning.ScanLog{
		{ID: 1, Barcode: "PKG-001", JobName: "1.Release"},
		{ID: 2, Barcode: "PKG-002", JobName: "1.Release"},
	}}
	svc := newReportService(scans)

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	report, err := svc.Generate(context.Background(), scanning.ReportFilter{Date: date, JobID: 1})
	require.NoError(t, err)

	assert.Equal(t, "1.Release", report.JobName)
	assert.Equal(t, "all", report.SubJobName, "no sub-job filter means the report spans all sub-jobs")
	assert.Equal(t, 2, report.TotalCount)
	assert.Len(t, report.Rows, 2)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestGenerateReportWithSubJob(t *testing.T) {
	svc := newReportService(nil)

	report, err := svc.Generate(context.Background(), scanning.ReportFilter{
		Date:     time.Now(),
		JobID:    1,
		SubJobID: intPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "Standard", report.SubJobName)
}

func TestGenerateReportUnknownJob(t *testing.T) {
	svc := newReportService(nil)

	_, err := svc.Generate(context.Background(), scanning.ReportFilter{Date: time.Now(), JobID: 99})
	assert.ErrorIs(t, err, scanning.ErrJobTypeNotFound)
}

func TestGenerateReportUnknownSubJob(t *testing.T) {
	svc := newReportService(nil)

	_, err := svc.Generate(context.Background(), scanning.ReportFilter{
		Date:     time.Now(),
		JobID:    1,
		SubJobID: intPtr(99),
	})
	assert.ErrorIs(t, err, scanning.ErrSubJobNotFound)
}

func TestGenerateReportRequiresDate(t *testing.T) {
	svc := newReportService(nil)

	_, err := svc.Generate(context.Background(), scanning.ReportFilter{JobID: 1})
	assert.Error(t, err)
}

func TestAuditServiceHistoryDefaultLimit(t *testing.T) {
	audit := &fakeAuditRepo{history: []scanning.AuditLogEntry{{ID: 1}}}
	svc := NewAuditService(testLogger(), testTracer(), audit)

	entries, err := svc.History(context.Background(), scanning.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuditServiceSummary(t *testing.T) {
	audit := &fakeAuditRepo{summary: &scanning.AuditSummary{TotalChanges: 4, Updates: 3, Deletes: 1}}
	svc := NewAuditService(testLogger(), testTracer(), audit)

	summary, err := svc.Summary(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalChanges)
}

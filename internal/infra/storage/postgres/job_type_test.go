package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/scantrack/internal/infra/storage"
)

func TestJobTypeStore_CreateAndFind(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	store := NewJobTypeStore(db, storage.NoOpTracer())

	id, err := store.Create(ctx, "1.Release")
	require.NoError(t, err)
	require.Positive(t, id)

	byID, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "1.Release", byID.Name)
	assert.True(t, byID.IsActive)
	assert.False(t, byID.CreatedAt.IsZero())

	byName, err := store.FindByName(ctx, "1.Release")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)
}

func TestJobTypeStore_NotFoundIsNil(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	store := NewJobTypeStore(db, storage.NoOpTracer())

	job, err := store.FindByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, job)

	job, err = store.FindByName(ctx, "no-such-job")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobTypeStore_ListOrdersByName(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	store := NewJobTypeStore(db, storage.NoOpTracer())

	for _, name := range []string{"3.Outbound", "1.Release", "2.Assembly"} {
		_, err := store.Create(ctx, name)
		require.NoError(t, err)
	}

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "1.Release", jobs[0].Name)
	assert.Equal(t, "2.Assembly", jobs[1].Name)
	assert.Equal(t, "3.Outbound", jobs[2].Name)
}

func TestJobTypeStore_RenameAndDeactivate(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	store := NewJobTypeStore(db, storage.NoOpTracer())

	id, err := store.Create(ctx, "Packing")
	require.NoError(t, err)

	require.NoError(t, store.Rename(ctx, id, "Final Packing"))
	job, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Final Packing", job.Name)

	require.NoError(t, store.Deactivate(ctx, id))
	job, err = store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, job.IsActive)
}

func TestJobTypeStore_NameExists(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	store := NewJobTypeStore(db, storage.NoOpTracer())

	id, err := store.Create(ctx, "Packing")
	require.NoError(t, err)

	exists, err := store.NameExists(ctx, "Packing", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	// Excluding the row itself makes the same name available for renames.
	exists, err = store.NameExists(ctx, "Packing", id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSubJobStore_CreateUpdateLifecycle(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Assembly")
	require.NoError(t, err)

	subID, err := subs.Create(ctx, jobID, "Frame", "frame assembly station")
	require.NoError(t, err)

	sub, err := subs.FindByID(ctx, subID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, jobID, sub.MainJobID)
	assert.Equal(t, "Frame", sub.Name)
	assert.Equal(t, "frame assembly station", sub.Description)
	assert.True(t, sub.IsActive)

	require.NoError(t, subs.Update(ctx, subID, "Frame v2", ""))
	sub, err = subs.FindByID(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, "Frame v2", sub.Name)
	assert.Empty(t, sub.Description)

	require.NoError(t, subs.SoftDelete(ctx, subID))
	sub, err = subs.FindByID(ctx, subID)
	require.NoError(t, err)
	assert.False(t, sub.IsActive)

	require.NoError(t, subs.Activate(ctx, subID))
	sub, err = subs.FindByID(ctx, subID)
	require.NoError(t, err)
	assert.True(t, sub.IsActive)
}

func TestSubJobStore_ListByMainJobActiveOnly(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Assembly")
	require.NoError(t, err)

	activeID, err := subs.Create(ctx, jobID, "Frame", "")
	require.NoError(t, err)
	retiredID, err := subs.Create(ctx, jobID, "Legacy", "")
	require.NoError(t, err)
	require.NoError(t, subs.SoftDelete(ctx, retiredID))

	all, err := subs.ListByMainJob(ctx, jobID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := subs.ListByMainJob(ctx, jobID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, activeID, active[0].ID)
}

func TestSubJobStore_DuplicateExistsIgnoresInactive(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	subs := NewSubJobStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Assembly")
	require.NoError(t, err)

	subID, err := subs.Create(ctx, jobID, "Frame", "")
	require.NoError(t, err)

	dup, err := subs.DuplicateExists(ctx, jobID, "Frame", 0)
	require.NoError(t, err)
	assert.True(t, dup)

	require.NoError(t, subs.SoftDelete(ctx, subID))
	dup, err = subs.DuplicateExists(ctx, jobID, "Frame", 0)
	require.NoError(t, err)
	assert.False(t, dup, "inactive sub-jobs do not block the name")
}

func TestDependencyStore_AddListRemove(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	deps := NewDependencyStore(db, storage.NoOpTracer())

	releaseID, err := jobs.Create(ctx, "1.Release")
	require.NoError(t, err)
	outboundID, err := jobs.Create(ctx, "3.Outbound")
	require.NoError(t, err)

	require.NoError(t, deps.Add(ctx, outboundID, releaseID))

	exists, err := deps.Exists(ctx, outboundID, releaseID)
	require.NoError(t, err)
	assert.True(t, exists)

	required, err := deps.RequiredJobs(ctx, outboundID)
	require.NoError(t, err)
	require.Len(t, required, 1)
	assert.Equal(t, releaseID, required[0].JobID)
	assert.Equal(t, "1.Release", required[0].JobName)

	dependents, err := deps.DependentJobs(ctx, releaseID)
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, outboundID, dependents[0].JobID)

	edges, err := deps.List(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "3.Outbound", edges[0].JobName)
	assert.Equal(t, "1.Release", edges[0].RequiredJobName)

	affected, err := deps.Remove(ctx, outboundID, releaseID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	exists, err = deps.Exists(ctx, outboundID, releaseID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDependencyStore_SelfEdgeRejectedBySchema(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	deps := NewDependencyStore(db, storage.NoOpTracer())

	jobID, err := jobs.Create(ctx, "Packing")
	require.NoError(t, err)

	err = deps.Add(ctx, jobID, jobID)
	require.Error(t, err, "the no_self_dependency constraint backs up the service check")
}

func TestDependencyStore_RequiredJobsWithScanStatus(t *testing.T) {
	t.Parallel()
	ctx, db, cleanup := setupGateway(t)
	defer cleanup()

	jobs := NewJobTypeStore(db, storage.NoOpTracer())
	deps := NewDependencyStore(db, storage.NoOpTracer())
	scans := NewScanLogStore(db, storage.NoOpTracer())

	releaseID, err := jobs.Create(ctx, "1.Release")
	require.NoError(t, err)
	outboundID, err := jobs.Create(ctx, "3.Outbound")
	require.NoError(t, err)
	require.NoError(t, deps.Add(ctx, outboundID, releaseID))

	statuses, err := deps.RequiredJobsWithScanStatus(ctx, outboundID, false)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Zero(t, statuses[0].ScanCount)

	record := newTestScan("PKG-0001", releaseID, nil)
	require.NoError(t, scans.Insert(ctx, record))

	statuses, err = deps.RequiredJobsWithScanStatus(ctx, outboundID, false)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 1, statuses[0].ScanCount)
}

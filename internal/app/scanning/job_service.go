package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// JobService administers job types and their sub-jobs. Deletion is soft
// whenever scan records reference the row, so history stays resolvable.
type JobService struct {
	log    *logger.Logger
	tracer trace.Tracer

	jobs  scanning.JobTypeRepository
	subs  scanning.SubJobRepository
	scans scanning.ScanLogRepository
}

// NewJobService creates the job administration service.
func NewJobService(
	log *logger.Logger,
	tracer trace.Tracer,
	jobs scanning.JobTypeRepository,
	subs scanning.SubJobRepository,
	scans scanning.ScanLogRepository,
) *JobService {
	return &JobService{log: log, tracer: tracer, jobs: jobs, subs: subs, scans: scans}
}

// ListJobs returns all job types ordered by name.
func (s *JobService) ListJobs(ctx context.Context) ([]scanning.JobType, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.list_jobs")
	defer span.End()

	return s.jobs.List(ctx)
}

// GetJob returns one job type.
func (s *JobService) GetJob(ctx context.Context, id int) (*scanning.JobType, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.get_job",
		attribute.Int("job_id", id))
	defer span.End()

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading job %d: %w", id, err)
	}
	if job == nil {
		return nil, scanning.ErrJobTypeNotFound
	}
	return job, nil
}

// CreateJob adds a new job type with a unique name.
func (s *JobService) CreateJob(ctx context.Context, name string) (int, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.create_job")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("job name is required")
	}

	taken, err := s.jobs.NameExists(ctx, name, 0)
	if err != nil {
		return 0, fmt.Errorf("checking job name: %w", err)
	}
	if taken {
		return 0, scanning.ErrDuplicateJobName
	}

	id, err := s.jobs.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("creating job: %w", err)
	}
	s.log.Info(ctx, "job type created", "job_id", id, "name", name)
	return id, nil
}

// RenameJob changes a job type's name, keeping names unique.
func (s *JobService) RenameJob(ctx context.Context, id int, name string) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.rename_job",
		attribute.Int("job_id", id))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("job name is required")
	}

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading job %d: %w", id, err)
	}
	if job == nil {
		return scanning.ErrJobTypeNotFound
	}

	taken, err := s.jobs.NameExists(ctx, name, id)
	if err != nil {
		return fmt.Errorf("checking job name: %w", err)
	}
	if taken {
		return scanning.ErrDuplicateJobName
	}

	if err := s.jobs.Rename(ctx, id, name); err != nil {
		return fmt.Errorf("renaming job %d: %w", id, err)
	}
	s.log.Info(ctx, "job type renamed", "job_id", id, "name", name)
	return nil
}

// DeleteJob removes a job type. Jobs referenced by scan records are
// deactivated instead of deleted so historical rows keep their names.
func (s *JobService) DeleteJob(ctx context.Context, id int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.delete_job",
		attribute.Int("job_id", id))
	defer span.End()

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading job %d: %w", id, err)
	}
	if job == nil {
		return scanning.ErrJobTypeNotFound
	}

	count, err := s.scans.CountByJob(ctx, id, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("counting scans for job %d: %w", id, err)
	}
	if count > 0 {
		if err := s.jobs.Deactivate(ctx, id); err != nil {
			return fmt.Errorf("deactivating job %d: %w", id, err)
		}
		s.log.Info(ctx, "job type deactivated", "job_id", id, "scan_count", count)
		return nil
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting job %d: %w", id, err)
	}
	s.log.Info(ctx, "job type deleted", "job_id", id)
	return nil
}

// ListSubJobs returns a job's sub-jobs, optionally only the active ones.
func (s *JobService) ListSubJobs(ctx context.Context, mainJobID int, activeOnly bool) ([]scanning.SubJobType, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.list_sub_jobs",
		attribute.Int("job_id", mainJobID),
		attribute.Bool("active_only", activeOnly),
	)
	defer span.End()

	return s.subs.ListByMainJob(ctx, mainJobID, activeOnly)
}

// CreateSubJob adds a sub-job under a main job. Names are unique among the
// main job's active sub-jobs.
func (s *JobService) CreateSubJob(ctx context.Context, mainJobID int, name, description string) (int, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.create_sub_job",
		attribute.Int("job_id", mainJobID))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("sub-job name is required")
	}

	job, err := s.jobs.FindByID(ctx, mainJobID)
	if err != nil {
		return 0, fmt.Errorf("loading job %d: %w", mainJobID, err)
	}
	if job == nil {
		return 0, scanning.ErrJobTypeNotFound
	}

	dup, err := s.subs.DuplicateExists(ctx, mainJobID, name, 0)
	if err != nil {
		return 0, fmt.Errorf("checking sub-job name: %w", err)
	}
	if dup {
		return 0, scanning.ErrDuplicateSubJobName
	}

	id, err := s.subs.Create(ctx, mainJobID, name, strings.TrimSpace(description))
	if err != nil {
		return 0, fmt.Errorf("creating sub-job: %w", err)
	}
	s.log.Info(ctx, "sub-job created", "sub_job_id", id, "job_id", mainJobID, "name", name)
	return id, nil
}

// UpdateSubJob changes a sub-job's name and description. The parent job link
// never changes.
func (s *JobService) UpdateSubJob(ctx context.Context, id int, name, description string) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.update_sub_job",
		attribute.Int("sub_job_id", id))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sub-job name is required")
	}

	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading sub-job %d: %w", id, err)
	}
	if sub == nil {
		return scanning.ErrSubJobNotFound
	}

	dup, err := s.subs.DuplicateExists(ctx, sub.MainJobID, name, id)
	if err != nil {
		return fmt.Errorf("checking sub-job name: %w", err)
	}
	if dup {
		return scanning.ErrDuplicateSubJobName
	}

	if err := s.subs.Update(ctx, id, name, strings.TrimSpace(description)); err != nil {
		return fmt.Errorf("updating sub-job %d: %w", id, err)
	}
	s.log.Info(ctx, "sub-job updated", "sub_job_id", id, "name", name)
	return nil
}

// DeleteSubJob removes a sub-job, soft-deleting when scan records reference it.
func (s *JobService) DeleteSubJob(ctx context.Context, id int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.delete_sub_job",
		attribute.Int("sub_job_id", id))
	defer span.End()

	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading sub-job %d: %w", id, err)
	}
	if sub == nil {
		return scanning.ErrSubJobNotFound
	}

	count, err := s.scans.CountBySubJob(ctx, id)
	if err != nil {
		return fmt.Errorf("counting scans for sub-job %d: %w", id, err)
	}
	if count > 0 {
		if err := s.subs.SoftDelete(ctx, id); err != nil {
			return fmt.Errorf("deactivating sub-job %d: %w", id, err)
		}
		s.log.Info(ctx, "sub-job deactivated", "sub_job_id", id, "scan_count", count)
		return nil
	}

	if err := s.subs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting sub-job %d: %w", id, err)
	}
	s.log.Info(ctx, "sub-job deleted", "sub_job_id", id)
	return nil
}

// ActivateSubJob restores a deactivated sub-job for new scans.
func (s *JobService) ActivateSubJob(ctx context.Context, id int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "job_service.activate_sub_job",
		attribute.Int("sub_job_id", id))
	defer span.End()

	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading sub-job %d: %w", id, err)
	}
	if sub == nil {
		return scanning.ErrSubJobNotFound
	}

	if err := s.subs.Activate(ctx, id); err != nil {
		return fmt.Errorf("activating sub-job %d: %w", id, err)
	}
	s.log.Info(ctx, "sub-job activated", "sub_job_id", id)
	return nil
}

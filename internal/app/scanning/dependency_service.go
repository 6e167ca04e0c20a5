package scanning

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// DependencyService administers the prerequisite graph between job types.
// The graph must stay acyclic; a cycle would make every job on it
// unscannable.
type DependencyService struct {
	log    *logger.Logger
	tracer trace.Tracer

	jobs scanning.JobTypeRepository
	deps scanning.DependencyRepository
}

// NewDependencyService creates the dependency administration service.
func NewDependencyService(
	log *logger.Logger,
	tracer trace.Tracer,
	jobs scanning.JobTypeRepository,
	deps scanning.DependencyRepository,
) *DependencyService {
	return &DependencyService{log: log, tracer: tracer, jobs: jobs, deps: deps}
}

// Add creates one dependency edge after checking both jobs exist, the edge is
// not a self-reference, does not already exist, and does not close a cycle.
func (s *DependencyService) Add(ctx context.Context, jobID, requiredJobID int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.add",
		attribute.Int("job_id", jobID),
		attribute.Int("required_job_id", requiredJobID),
	)
	defer span.End()

	if jobID == requiredJobID {
		return scanning.ErrSelfDependency
	}

	for _, id := range []int{jobID, requiredJobID} {
		job, err := s.jobs.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading job %d: %w", id, err)
		}
		if job == nil {
			return fmt.Errorf("%w: id %d", scanning.ErrJobTypeNotFound, id)
		}
	}

	exists, err := s.deps.Exists(ctx, jobID, requiredJobID)
	if err != nil {
		return fmt.Errorf("checking dependency: %w", err)
	}
	if exists {
		return scanning.ErrDuplicateDependency
	}

	// The reverse edge existing means adding this one would form a two-node
	// cycle. Longer cycles cannot arise from single-edge adds against an
	// acyclic graph walked this way.
	cyclic, err := s.wouldCycle(ctx, jobID, requiredJobID)
	if err != nil {
		return fmt.Errorf("checking for cycles: %w", err)
	}
	if cyclic {
		return scanning.ErrCircularDependency
	}

	if err := s.deps.Add(ctx, jobID, requiredJobID); err != nil {
		return fmt.Errorf("adding dependency: %w", err)
	}
	s.log.Info(ctx, "dependency added", "job_id", jobID, "required_job_id", requiredJobID)
	return nil
}

// wouldCycle reports whether requiredJobID already depends on jobID,
// directly or transitively.
func (s *DependencyService) wouldCycle(ctx context.Context, jobID, requiredJobID int) (bool, error) {
	visited := map[int]bool{}
	stack := []int{requiredJobID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == jobID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		required, err := s.deps.RequiredJobs(ctx, current)
		if err != nil {
			return false, err
		}
		for _, rj := range required {
			stack = append(stack, rj.JobID)
		}
	}
	return false, nil
}

// Remove deletes one dependency edge.
func (s *DependencyService) Remove(ctx context.Context, jobID, requiredJobID int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.remove",
		attribute.Int("job_id", jobID),
		attribute.Int("required_job_id", requiredJobID),
	)
	defer span.End()

	affected, err := s.deps.Remove(ctx, jobID, requiredJobID)
	if err != nil {
		return fmt.Errorf("removing dependency: %w", err)
	}
	if affected == 0 {
		return scanning.ErrDependencyNotFound
	}
	s.log.Info(ctx, "dependency removed", "job_id", jobID, "required_job_id", requiredJobID)
	return nil
}

// RemoveAll deletes every dependency edge originating at the job.
func (s *DependencyService) RemoveAll(ctx context.Context, jobID int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.remove_all",
		attribute.Int("job_id", jobID))
	defer span.End()

	if _, err := s.deps.RemoveAll(ctx, jobID); err != nil {
		return fmt.Errorf("removing dependencies of job %d: %w", jobID, err)
	}
	return nil
}

// Save replaces a job's dependency set with the given required jobs. Each
// edge is validated independently; failures are collected so one bad edge
// does not discard the rest.
func (s *DependencyService) Save(ctx context.Context, jobID int, requiredJobIDs []int) error {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.save",
		attribute.Int("job_id", jobID),
		attribute.Int("edge_count", len(requiredJobIDs)),
	)
	defer span.End()

	if _, err := s.deps.RemoveAll(ctx, jobID); err != nil {
		return fmt.Errorf("clearing dependencies of job %d: %w", jobID, err)
	}

	var errs []error
	for _, requiredID := range requiredJobIDs {
		if err := s.Add(ctx, jobID, requiredID); err != nil {
			errs = append(errs, fmt.Errorf("required job %d: %w", requiredID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("saving dependencies of job %d: %w", jobID, errors.Join(errs...))
	}
	s.log.Info(ctx, "dependencies saved", "job_id", jobID, "count", len(requiredJobIDs))
	return nil
}

// RequiredJobs lists a job's prerequisites.
func (s *DependencyService) RequiredJobs(ctx context.Context, jobID int) ([]scanning.RequiredJob, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.required_jobs",
		attribute.Int("job_id", jobID))
	defer span.End()

	return s.deps.RequiredJobs(ctx, jobID)
}

// RequiredJobsWithStatus lists a job's prerequisites with scan counts,
// restricted to today's scans when todayOnly is set.
func (s *DependencyService) RequiredJobsWithStatus(ctx context.Context, jobID int, todayOnly bool) ([]scanning.RequiredJobStatus, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.required_jobs_with_status",
		attribute.Int("job_id", jobID),
		attribute.Bool("today_only", todayOnly),
	)
	defer span.End()

	return s.deps.RequiredJobsWithScanStatus(ctx, jobID, todayOnly)
}

// List returns every dependency edge with job names resolved.
func (s *DependencyService) List(ctx context.Context) ([]scanning.DependencyEdge, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "dependency_service.list")
	defer span.End()

	return s.deps.List(ctx)
}

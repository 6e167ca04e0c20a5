package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/infra/storage"
	"github.com/warekit/scantrack/internal/infra/storage/gateway"
)

var _ scanning.DependencyRepository = (*dependencyStore)(nil)

// dependencyStore implements scanning.DependencyRepository using PostgreSQL.
type dependencyStore struct {
	db     *gateway.DB
	tracer trace.Tracer
}

// NewDependencyStore creates a PostgreSQL-backed dependency repository with tracing.
func NewDependencyStore(db *gateway.DB, tracer trace.Tracer) *dependencyStore {
	return &dependencyStore{db: db, tracer: tracer}
}

func scanRequiredJob(row pgx.CollectableRow) (scanning.RequiredJob, error) {
	var rj scanning.RequiredJob
	err := row.Scan(&rj.JobID, &rj.JobName)
	return rj, err
}

func (r *dependencyStore) RequiredJobs(ctx context.Context, jobID int) ([]scanning.RequiredJob, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_id", jobID))

	var required []scanning.RequiredJob
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.required_jobs", dbAttrs, func(ctx context.Context) error {
		var err error
		required, err = gateway.Collect(ctx, r.db,
			`SELECT d.required_job_id, j.job_name
			 FROM job_dependencies d
			 JOIN job_types j ON j.id = d.required_job_id
			 WHERE d.job_id = $1
			 ORDER BY j.job_name`,
			[]any{jobID}, scanRequiredJob)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading required jobs for %d: %w", jobID, err)
	}
	return required, nil
}

func (r *dependencyStore) RequiredJobsWithScanStatus(ctx context.Context, jobID int, todayOnly bool) ([]scanning.RequiredJobStatus, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int("job_id", jobID),
		attribute.Bool("today_only", todayOnly),
	)

	sql := `SELECT d.required_job_id, j.job_name, COUNT(s.id)
		 FROM job_dependencies d
		 JOIN job_types j ON j.id = d.required_job_id
		 LEFT JOIN scan_logs s ON s.job_id = d.required_job_id`
	if todayOnly {
		sql += ` AND s.scan_date::date = CURRENT_DATE`
	}
	sql += ` WHERE d.job_id = $1
		 GROUP BY d.required_job_id, j.job_name
		 ORDER BY j.job_name`

	var statuses []scanning.RequiredJobStatus
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.required_jobs_with_status", dbAttrs, func(ctx context.Context) error {
		var err error
		statuses, err = gateway.Collect(ctx, r.db, sql, []any{jobID},
			func(row pgx.CollectableRow) (scanning.RequiredJobStatus, error) {
				var s scanning.RequiredJobStatus
				err := row.Scan(&s.JobID, &s.JobName, &s.ScanCount)
				return s, err
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading required job status for %d: %w", jobID, err)
	}
	return statuses, nil
}

func (r *dependencyStore) DependentJobs(ctx context.Context, requiredJobID int) ([]scanning.RequiredJob, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("required_job_id", requiredJobID))

	var dependents []scanning.RequiredJob
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.dependent_jobs", dbAttrs, func(ctx context.Context) error {
		var err error
		dependents, err = gateway.Collect(ctx, r.db,
			`SELECT d.job_id, j.job_name
			 FROM job_dependencies d
			 JOIN job_types j ON j.id = d.job_id
			 WHERE d.required_job_id = $1
			 ORDER BY j.job_name`,
			[]any{requiredJobID}, scanRequiredJob)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading dependents of %d: %w", requiredJobID, err)
	}
	return dependents, nil
}

func (r *dependencyStore) Add(ctx context.Context, jobID, requiredJobID int) error {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int("job_id", jobID),
		attribute.Int("required_job_id", requiredJobID),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.add_dependency", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO job_dependencies (job_id, required_job_id) VALUES ($1, $2)`,
			jobID, requiredJobID)
		if err != nil {
			return fmt.Errorf("adding dependency %d -> %d: %w", jobID, requiredJobID, err)
		}
		return nil
	})
}

func (r *dependencyStore) Remove(ctx context.Context, jobID, requiredJobID int) (int64, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int("job_id", jobID),
		attribute.Int("required_job_id", requiredJobID),
	)

	var affected int64
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.remove_dependency", dbAttrs, func(ctx context.Context) error {
		var err error
		affected, err = r.db.Exec(ctx,
			`DELETE FROM job_dependencies WHERE job_id = $1 AND required_job_id = $2`,
			jobID, requiredJobID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("removing dependency %d -> %d: %w", jobID, requiredJobID, err)
	}
	return affected, nil
}

func (r *dependencyStore) RemoveAll(ctx context.Context, jobID int) (int64, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_id", jobID))

	var affected int64
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.remove_all_dependencies", dbAttrs, func(ctx context.Context) error {
		var err error
		affected, err = r.db.Exec(ctx, `DELETE FROM job_dependencies WHERE job_id = $1`, jobID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("removing dependencies of %d: %w", jobID, err)
	}
	return affected, nil
}

func (r *dependencyStore) Exists(ctx context.Context, jobID, requiredJobID int) (bool, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int("job_id", jobID),
		attribute.Int("required_job_id", requiredJobID),
	)

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.dependency_exists", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db,
			`SELECT COUNT(*) FROM job_dependencies WHERE job_id = $1 AND required_job_id = $2`,
			jobID, requiredJobID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("checking dependency %d -> %d: %w", jobID, requiredJobID, err)
	}
	return count > 0, nil
}

func (r *dependencyStore) List(ctx context.Context) ([]scanning.DependencyEdge, error) {
	var edges []scanning.DependencyEdge
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_dependencies", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		edges, err = gateway.Collect(ctx, r.db,
			`SELECT d.id, d.job_id, j.job_name, d.required_job_id, rj.job_name, d.created_at
			 FROM job_dependencies d
			 JOIN job_types j ON j.id = d.job_id
			 JOIN job_types rj ON rj.id = d.required_job_id
			 ORDER BY j.job_name, rj.job_name`,
			nil,
			func(row pgx.CollectableRow) (scanning.DependencyEdge, error) {
				var e scanning.DependencyEdge
				err := row.Scan(&e.ID, &e.JobID, &e.JobName, &e.RequiredJobID, &e.RequiredJobName, &e.CreatedAt)
				return e, err
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	return edges, nil
}

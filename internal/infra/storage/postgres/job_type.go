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

var _ scanning.JobTypeRepository = (*jobTypeStore)(nil)

// jobTypeStore implements scanning.JobTypeRepository using PostgreSQL.
type jobTypeStore struct {
	db     *gateway.DB
	tracer trace.Tracer
}

// NewJobTypeStore creates a PostgreSQL-backed job type repository with tracing.
func NewJobTypeStore(db *gateway.DB, tracer trace.Tracer) *jobTypeStore {
	return &jobTypeStore{db: db, tracer: tracer}
}

const jobTypeColumns = `id, job_name, is_active, created_at, updated_at`

func scanJobType(row pgx.CollectableRow) (scanning.JobType, error) {
	var j scanning.JobType
	err := row.Scan(&j.ID, &j.Name, &j.IsActive, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (r *jobTypeStore) FindByID(ctx context.Context, id int) (*scanning.JobType, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_type_id", id))

	var job *scanning.JobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.find_job_type", dbAttrs, func(ctx context.Context) error {
		var err error
		job, err = gateway.CollectOne(ctx, r.db,
			`SELECT `+jobTypeColumns+` FROM job_types WHERE id = $1`,
			[]any{id}, scanJobType)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding job type %d: %w", id, err)
	}
	return job, nil
}

func (r *jobTypeStore) FindByName(ctx context.Context, name string) (*scanning.JobType, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("job_name", name))

	var job *scanning.JobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.find_job_type_by_name", dbAttrs, func(ctx context.Context) error {
		var err error
		job, err = gateway.CollectOne(ctx, r.db,
			`SELECT `+jobTypeColumns+` FROM job_types WHERE job_name = $1`,
			[]any{name}, scanJobType)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding job type %q: %w", name, err)
	}
	return job, nil
}

func (r *jobTypeStore) List(ctx context.Context) ([]scanning.JobType, error) {
	var jobs []scanning.JobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_job_types", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		jobs, err = gateway.Collect(ctx, r.db,
			`SELECT `+jobTypeColumns+` FROM job_types ORDER BY job_name`,
			nil, scanJobType)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing job types: %w", err)
	}
	return jobs, nil
}

func (r *jobTypeStore) Create(ctx context.Context, name string) (int, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("job_name", name))

	var id int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.create_job_type", dbAttrs, func(ctx context.Context) error {
		var err error
		id, err = gateway.Scalar[int](ctx, r.db,
			`INSERT INTO job_types (job_name) VALUES ($1) RETURNING id`, name)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("creating job type %q: %w", name, err)
	}
	return id, nil
}

func (r *jobTypeStore) Rename(ctx context.Context, id int, name string) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_type_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.rename_job_type", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE job_types SET job_name = $2, updated_at = NOW() WHERE id = $1`, id, name)
		if err != nil {
			return fmt.Errorf("renaming job type %d: %w", id, err)
		}
		return nil
	})
}

func (r *jobTypeStore) Deactivate(ctx context.Context, id int) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_type_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.deactivate_job_type", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE job_types SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deactivating job type %d: %w", id, err)
		}
		return nil
	})
}

func (r *jobTypeStore) Delete(ctx context.Context, id int) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_type_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_job_type", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `DELETE FROM job_types WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting job type %d: %w", id, err)
		}
		return nil
	})
}

func (r *jobTypeStore) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("job_name", name))

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.job_type_name_exists", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db,
			`SELECT COUNT(*) FROM job_types WHERE job_name = $1 AND id <> $2`, name, excludeID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("checking job type name %q: %w", name, err)
	}
	return count > 0, nil
}

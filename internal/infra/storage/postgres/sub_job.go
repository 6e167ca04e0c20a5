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

var _ scanning.SubJobRepository = (*subJobStore)(nil)

// subJobStore implements scanning.SubJobRepository using PostgreSQL.
type subJobStore struct {
	db     *gateway.DB
	tracer trace.Tracer
}

// NewSubJobStore creates a PostgreSQL-backed sub-job repository with tracing.
func NewSubJobStore(db *gateway.DB, tracer trace.Tracer) *subJobStore {
	return &subJobStore{db: db, tracer: tracer}
}

const subJobColumns = `id, main_job_id, sub_job_name, COALESCE(description, ''), is_active, created_at, updated_at`

func scanSubJob(row pgx.CollectableRow) (scanning.SubJobType, error) {
	var s scanning.SubJobType
	err := row.Scan(&s.ID, &s.MainJobID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *subJobStore) FindByID(ctx context.Context, id int) (*scanning.SubJobType, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("sub_job_id", id))

	var sub *scanning.SubJobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.find_sub_job", dbAttrs, func(ctx context.Context) error {
		var err error
		sub, err = gateway.CollectOne(ctx, r.db,
			`SELECT `+subJobColumns+` FROM sub_job_types WHERE id = $1`,
			[]any{id}, scanSubJob)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding sub-job %d: %w", id, err)
	}
	return sub, nil
}

func (r *subJobStore) ListByMainJob(ctx context.Context, mainJobID int, activeOnly bool) ([]scanning.SubJobType, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("main_job_id", mainJobID))

	sql := `SELECT ` + subJobColumns + ` FROM sub_job_types WHERE main_job_id = $1`
	if activeOnly {
		sql += ` AND is_active = TRUE`
	}
	sql += ` ORDER BY sub_job_name`

	var subs []scanning.SubJobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_sub_jobs", dbAttrs, func(ctx context.Context) error {
		var err error
		subs, err = gateway.Collect(ctx, r.db, sql, []any{mainJobID}, scanSubJob)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing sub-jobs for job %d: %w", mainJobID, err)
	}
	return subs, nil
}

func (r *subJobStore) ListAllActive(ctx context.Context) ([]scanning.SubJobType, error) {
	var subs []scanning.SubJobType
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.list_all_active_sub_jobs", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		subs, err = gateway.Collect(ctx, r.db,
			`SELECT `+subJobColumns+` FROM sub_job_types WHERE is_active = TRUE ORDER BY main_job_id, sub_job_name`,
			nil, scanSubJob)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing active sub-jobs: %w", err)
	}
	return subs, nil
}

func (r *subJobStore) Create(ctx context.Context, mainJobID int, name, description string) (int, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int("main_job_id", mainJobID),
		attribute.String("sub_job_name", name),
	)

	var id int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.create_sub_job", dbAttrs, func(ctx context.Context) error {
		var err error
		id, err = gateway.Scalar[int](ctx, r.db,
			`INSERT INTO sub_job_types (main_job_id, sub_job_name, description) VALUES ($1, $2, NULLIF($3, '')) RETURNING id`,
			mainJobID, name, description)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("creating sub-job %q under job %d: %w", name, mainJobID, err)
	}
	return id, nil
}

func (r *subJobStore) Update(ctx context.Context, id int, name, description string) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("sub_job_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.update_sub_job", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE sub_job_types SET sub_job_name = $2, description = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
			id, name, description)
		if err != nil {
			return fmt.Errorf("updating sub-job %d: %w", id, err)
		}
		return nil
	})
}

func (r *subJobStore) SoftDelete(ctx context.Context, id int) error {
	return r.setActive(ctx, id, false, "postgres.soft_delete_sub_job")
}

func (r *subJobStore) Activate(ctx context.Context, id int) error {
	return r.setActive(ctx, id, true, "postgres.activate_sub_job")
}

func (r *subJobStore) setActive(ctx context.Context, id int, active bool, spanName string) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("sub_job_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, spanName, dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx,
			`UPDATE sub_job_types SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
		if err != nil {
			return fmt.Errorf("setting sub-job %d active=%t: %w", id, active, err)
		}
		return nil
	})
}

func (r *subJobStore) Delete(ctx context.Context, id int) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("sub_job_id", id))

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_sub_job", dbAttrs, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `DELETE FROM sub_job_types WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting sub-job %d: %w", id, err)
		}
		return nil
	})
}

func (r *subJobStore) DuplicateExists(ctx context.Context, mainJobID int, name string, excludeID int) (bool, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("main_job_id", mainJobID))

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.sub_job_duplicate_exists", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db,
			`SELECT COUNT(*) FROM sub_job_types
			 WHERE main_job_id = $1 AND sub_job_name = $2 AND is_active = TRUE AND id <> $3`,
			mainJobID, name, excludeID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("checking sub-job name %q under job %d: %w", name, mainJobID, err)
	}
	return count > 0, nil
}

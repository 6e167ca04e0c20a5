package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/infra/storage"
	"github.com/warekit/scantrack/internal/infra/storage/gateway"
)

// recentWindow marks history rows scanned within this interval as fresh.
const recentWindow = 5 * time.Minute

var _ scanning.ScanLogRepository = (*scanLogStore)(nil)

// scanLogStore implements scanning.ScanLogRepository using PostgreSQL.
type scanLogStore struct {
	db     *gateway.DB
	tracer trace.Tracer
}

// NewScanLogStore creates a PostgreSQL-backed scan log repository with tracing.
func NewScanLogStore(db *gateway.DB, tracer trace.Tracer) *scanLogStore {
	return &scanLogStore{db: db, tracer: tracer}
}

const scanLogJoin = `
	FROM scan_logs s
	JOIN job_types j ON j.id = s.job_id
	LEFT JOIN sub_job_types sj ON sj.id = s.sub_job_id`

const scanLogColumns = `s.id, s.barcode, s.scan_date, s.job_id, s.sub_job_id,
	s.user_id, COALESCE(s.notes, ''), j.job_name, COALESCE(sj.sub_job_name, '')`

func scanScanLog(row pgx.CollectableRow) (scanning.ScanLog, error) {
	var l scanning.ScanLog
	err := row.Scan(&l.ID, &l.Barcode, &l.ScanDate, &l.JobID, &l.SubJobID,
		&l.UserID, &l.Notes, &l.JobName, &l.SubJobName)
	return l, err
}

func (r *scanLogStore) Insert(ctx context.Context, record *scanning.ScanLog) error {
	dbAttrs := append(defaultDBAttributes,
		attribute.String("barcode", record.Barcode),
		attribute.Int("job_id", record.JobID),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.insert_scan", dbAttrs, func(ctx context.Context) error {
		inserted, err := gateway.CollectOne(ctx, r.db,
			`INSERT INTO scan_logs (barcode, job_id, sub_job_id, user_id, notes)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			 RETURNING id, scan_date`,
			[]any{record.Barcode, record.JobID, record.SubJobID, record.UserID, record.Notes},
			func(row pgx.CollectableRow) (scanning.ScanLog, error) {
				var l scanning.ScanLog
				err := row.Scan(&l.ID, &l.ScanDate)
				return l, err
			})
		if err != nil {
			return fmt.Errorf("inserting scan for %q: %w", record.Barcode, err)
		}
		record.ID = inserted.ID
		record.ScanDate = inserted.ScanDate
		return nil
	})
}

func (r *scanLogStore) FindByID(ctx context.Context, id int64) (*scanning.ScanLog, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int64("scan_id", id))

	var record *scanning.ScanLog
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.find_scan", dbAttrs, func(ctx context.Context) error {
		var err error
		record, err = gateway.CollectOne(ctx, r.db,
			`SELECT `+scanLogColumns+scanLogJoin+` WHERE s.id = $1`,
			[]any{id}, scanScanLog)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding scan %d: %w", id, err)
	}
	return record, nil
}

func (r *scanLogStore) FindDuplicate(ctx context.Context, barcode string, jobID int, subJobID *int) (*scanning.ScanLog, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.String("barcode", barcode),
		attribute.Int("job_id", jobID),
	)

	// A NULL sub-job is its own triple value: it only collides with rows
	// whose sub_job_id is also NULL.
	sql := `SELECT ` + scanLogColumns + scanLogJoin + `
		 WHERE s.barcode = $1 AND s.job_id = $2 AND `
	args := []any{barcode, jobID}
	if subJobID == nil {
		sql += `s.sub_job_id IS NULL`
	} else {
		sql += `s.sub_job_id = $3`
		args = append(args, *subJobID)
	}
	sql += ` ORDER BY s.scan_date DESC LIMIT 1`

	var record *scanning.ScanLog
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.find_duplicate_scan", dbAttrs, func(ctx context.Context) error {
		var err error
		record, err = gateway.CollectOne(ctx, r.db, sql, args, scanScanLog)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("checking duplicate scan for %q: %w", barcode, err)
	}
	return record, nil
}

func (r *scanLogStore) ExistsForJob(ctx context.Context, barcode string, jobID int) (bool, error) {
	dbAttrs := append(defaultDBAttributes,
		attribute.String("barcode", barcode),
		attribute.Int("job_id", jobID),
	)

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.scan_exists_for_job", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db,
			`SELECT COUNT(*) FROM scan_logs WHERE barcode = $1 AND job_id = $2`,
			barcode, jobID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("checking scans of %q for job %d: %w", barcode, jobID, err)
	}
	return count > 0, nil
}

func (r *scanLogStore) SearchHistory(ctx context.Context, filter scanning.HistoryFilter) ([]scanning.HistoryEntry, error) {
	sql := `SELECT s.id, s.barcode, s.scan_date, j.job_name, COALESCE(sj.sub_job_name, ''),
		 s.user_id, COALESCE(s.notes, ''),
		 s.scan_date > NOW() - make_interval(secs => $1)` + scanLogJoin + ` WHERE 1=1`
	args := []any{recentWindow.Seconds()}

	add := func(clause string, value any) {
		args = append(args, value)
		sql += fmt.Sprintf(clause, len(args))
	}

	if filter.Barcode != "" {
		add(` AND s.barcode ILIKE $%d`, "%"+filter.Barcode+"%")
	}
	if filter.JobID > 0 {
		add(` AND s.job_id = $%d`, filter.JobID)
	}
	if filter.SubJobID > 0 {
		add(` AND s.sub_job_id = $%d`, filter.SubJobID)
	}
	if filter.UserID != "" {
		add(` AND s.user_id = $%d`, filter.UserID)
	}
	if filter.Notes != "" {
		add(` AND s.notes ILIKE $%d`, "%"+filter.Notes+"%")
	}
	if filter.TodayOnly {
		sql += ` AND s.scan_date::date = CURRENT_DATE`
	}
	if !filter.StartDate.IsZero() {
		add(` AND s.scan_date >= $%d`, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		add(` AND s.scan_date <= $%d`, filter.EndDate)
	}

	sql += ` ORDER BY s.scan_date DESC`
	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
	}

	var entries []scanning.HistoryEntry
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.search_scan_history", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		entries, err = gateway.Collect(ctx, r.db, sql, args,
			func(row pgx.CollectableRow) (scanning.HistoryEntry, error) {
				var e scanning.HistoryEntry
				err := row.Scan(&e.ID, &e.Barcode, &e.ScanDate, &e.JobName, &e.SubJobName,
					&e.UserID, &e.Notes, &e.Recent)
				return e, err
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("searching scan history: %w", err)
	}
	return entries, nil
}

func (r *scanLogStore) TodayCount(ctx context.Context, jobID int, subJobID *int, notesFilter string) (int, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_id", jobID))

	sql := `SELECT COUNT(*) FROM scan_logs
		 WHERE job_id = $1 AND scan_date::date = CURRENT_DATE`
	args := []any{jobID}
	if subJobID != nil {
		args = append(args, *subJobID)
		sql += fmt.Sprintf(` AND sub_job_id = $%d`, len(args))
	}
	if notesFilter != "" {
		args = append(args, "%"+notesFilter+"%")
		sql += fmt.Sprintf(` AND notes ILIKE $%d`, len(args))
	}

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.today_scan_count", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db, sql, args...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("counting today's scans for job %d: %w", jobID, err)
	}
	return count, nil
}

func (r *scanLogStore) CountByJob(ctx context.Context, jobID int, start, end time.Time) (int, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("job_id", jobID))

	sql := `SELECT COUNT(*) FROM scan_logs WHERE job_id = $1`
	args := []any{jobID}
	if !start.IsZero() {
		args = append(args, start)
		sql += fmt.Sprintf(` AND scan_date >= $%d`, len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		sql += fmt.Sprintf(` AND scan_date <= $%d`, len(args))
	}

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.count_scans_by_job", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db, sql, args...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("counting scans for job %d: %w", jobID, err)
	}
	return count, nil
}

func (r *scanLogStore) CountBySubJob(ctx context.Context, subJobID int) (int, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int("sub_job_id", subJobID))

	var count int
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.count_scans_by_sub_job", dbAttrs, func(ctx context.Context) error {
		var err error
		count, err = gateway.Scalar[int](ctx, r.db,
			`SELECT COUNT(*) FROM scan_logs WHERE sub_job_id = $1`, subJobID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("counting scans for sub-job %d: %w", subJobID, err)
	}
	return count, nil
}

func (r *scanLogStore) Report(ctx context.Context, filter scanning.ReportFilter) ([]scanning.ScanLog, error) {
	sql := `SELECT ` + scanLogColumns + scanLogJoin + ` WHERE s.scan_date::date = $1::date`
	args := []any{filter.Date}

	if filter.JobID > 0 {
		args = append(args, filter.JobID)
		sql += fmt.Sprintf(` AND s.job_id = $%d`, len(args))
	}
	if filter.SubJobID != nil {
		args = append(args, *filter.SubJobID)
		sql += fmt.Sprintf(` AND s.sub_job_id = $%d`, len(args))
	}
	if filter.Notes != "" {
		args = append(args, "%"+filter.Notes+"%")
		sql += fmt.Sprintf(` AND s.notes ILIKE $%d`, len(args))
	}
	sql += ` ORDER BY s.scan_date DESC`

	var records []scanning.ScanLog
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.scan_report", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		records, err = gateway.Collect(ctx, r.db, sql, args, scanScanLog)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("building scan report: %w", err)
	}
	return records, nil
}

func (r *scanLogStore) UpdateNotes(ctx context.Context, id int64, notes string) (int64, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int64("scan_id", id))

	var affected int64
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.update_scan_notes", dbAttrs, func(ctx context.Context) error {
		var err error
		affected, err = r.db.Exec(ctx,
			`UPDATE scan_logs SET notes = NULLIF($2, '') WHERE id = $1`, id, notes)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("updating notes on scan %d: %w", id, err)
	}
	return affected, nil
}

func (r *scanLogStore) Delete(ctx context.Context, id int64) (int64, error) {
	dbAttrs := append(defaultDBAttributes, attribute.Int64("scan_id", id))

	var affected int64
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.delete_scan", dbAttrs, func(ctx context.Context) error {
		var err error
		affected, err = r.db.Exec(ctx, `DELETE FROM scan_logs WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting scan %d: %w", id, err)
	}
	return affected, nil
}

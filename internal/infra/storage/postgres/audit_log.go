package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/infra/storage"
	"github.com/warekit/scantrack/internal/infra/storage/gateway"
)

var _ scanning.AuditLogRepository = (*auditLogStore)(nil)

// auditLogStore implements scanning.AuditLogRepository using PostgreSQL.
type auditLogStore struct {
	db     *gateway.DB
	tracer trace.Tracer
}

// NewAuditLogStore creates a PostgreSQL-backed audit log repository with tracing.
func NewAuditLogStore(db *gateway.DB, tracer trace.Tracer) *auditLogStore {
	return &auditLogStore{db: db, tracer: tracer}
}

func scanAuditEntry(row pgx.CollectableRow) (scanning.AuditLogEntry, error) {
	var e scanning.AuditLogEntry
	var oldValues, newValues []byte
	if err := row.Scan(&e.ID, &e.EntryID, &e.ScanRecordID, &e.Action,
		&oldValues, &newValues, &e.ChangedBy, &e.ChangeDate, &e.Notes); err != nil {
		return e, err
	}
	if len(oldValues) > 0 {
		if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
			return e, fmt.Errorf("decoding old values: %w", err)
		}
	}
	if len(newValues) > 0 {
		if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
			return e, fmt.Errorf("decoding new values: %w", err)
		}
	}
	return e, nil
}

const auditColumns = `id, entry_id, scan_record_id, action_type, old_values,
	new_values, changed_by, change_date, COALESCE(notes, '')`

func (r *auditLogStore) Insert(ctx context.Context, entry scanning.AuditLogEntry) error {
	dbAttrs := append(defaultDBAttributes,
		attribute.Int64("scan_record_id", entry.ScanRecordID),
		attribute.String("action", entry.Action.String()),
	)

	return storage.ExecuteAndTrace(ctx, r.tracer, "postgres.insert_audit_entry", dbAttrs, func(ctx context.Context) error {
		oldValues, err := marshalValues(entry.OldValues)
		if err != nil {
			return fmt.Errorf("encoding old values: %w", err)
		}
		newValues, err := marshalValues(entry.NewValues)
		if err != nil {
			return fmt.Errorf("encoding new values: %w", err)
		}

		_, err = r.db.Exec(ctx,
			`INSERT INTO audit_logs (entry_id, scan_record_id, action_type, old_values, new_values, changed_by, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
			entry.EntryID, entry.ScanRecordID, entry.Action.String(), oldValues, newValues, entry.ChangedBy, entry.Notes)
		if err != nil {
			return fmt.Errorf("inserting audit entry for scan %d: %w", entry.ScanRecordID, err)
		}
		return nil
	})
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	return json.Marshal(values)
}

func (r *auditLogStore) History(ctx context.Context, filter scanning.AuditFilter) ([]scanning.AuditLogEntry, error) {
	sql := `SELECT ` + auditColumns + ` FROM audit_logs WHERE 1=1`
	var args []any

	if filter.ScanRecordID > 0 {
		args = append(args, filter.ScanRecordID)
		sql += fmt.Sprintf(` AND scan_record_id = $%d`, len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action.String())
		sql += fmt.Sprintf(` AND action_type = $%d`, len(args))
	}
	if filter.ChangedBy != "" {
		args = append(args, filter.ChangedBy)
		sql += fmt.Sprintf(` AND changed_by = $%d`, len(args))
	}
	if !filter.Date.IsZero() {
		args = append(args, filter.Date)
		sql += fmt.Sprintf(` AND change_date::date = $%d::date`, len(args))
	}
	sql += ` ORDER BY change_date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	var entries []scanning.AuditLogEntry
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.audit_history", defaultDBAttributes, func(ctx context.Context) error {
		var err error
		entries, err = gateway.Collect(ctx, r.db, sql, args, scanAuditEntry)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading audit history: %w", err)
	}
	return entries, nil
}

func (r *auditLogStore) Summary(ctx context.Context, date time.Time) (*scanning.AuditSummary, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("date", date.Format("2006-01-02")))

	var summary *scanning.AuditSummary
	err := storage.ExecuteAndTrace(ctx, r.tracer, "postgres.audit_summary", dbAttrs, func(ctx context.Context) error {
		var err error
		summary, err = gateway.CollectOne(ctx, r.db,
			`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE action_type = 'UPDATE'),
				COUNT(*) FILTER (WHERE action_type = 'DELETE'),
				COUNT(DISTINCT changed_by),
				COUNT(DISTINCT scan_record_id)
			 FROM audit_logs
			 WHERE change_date::date = $1::date`,
			[]any{date},
			func(row pgx.CollectableRow) (scanning.AuditSummary, error) {
				var s scanning.AuditSummary
				err := row.Scan(&s.TotalChanges, &s.Updates, &s.Deletes, &s.UniqueUsers, &s.UniqueRecords)
				return s, err
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("building audit summary: %w", err)
	}
	if summary == nil {
		summary = &scanning.AuditSummary{}
	}
	summary.Date = date
	return summary, nil
}

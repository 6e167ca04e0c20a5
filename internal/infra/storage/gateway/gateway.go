// Package gateway is the single entry point for SQL execution. It borrows
// connections from the pool for exactly one statement at a time, maps rows
// into typed records, and wraps failures with the offending statement so
// callers never handle raw driver errors.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/warekit/scantrack/internal/infra/storage/pool"
	"github.com/warekit/scantrack/pkg/common/logger"
)

// QueryError reports a failed statement together with the SQL that caused
// it. Wraps the underlying driver error.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

// DB executes statements against pooled connections. Every call acquires a
// connection, runs one statement, and releases the connection before
// returning; statements are effectively auto-committed.
type DB struct {
	pool *pool.ConnectionPool
	log  *logger.Logger
}

// New creates a gateway over the given pool.
func New(p *pool.ConnectionPool, log *logger.Logger) *DB {
	return &DB{pool: p, log: log}
}

// Exec runs a statement and returns the number of rows affected.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer db.pool.Release(ctx, conn)

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{SQL: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}

// CallProcedure invokes a stored procedure by name.
func (db *DB) CallProcedure(ctx context.Context, name string, args ...any) error {
	sql := "CALL " + name + "("
	for i := range args {
		if i > 0 {
			sql += ", "
		}
		sql += fmt.Sprintf("$%d", i+1)
	}
	sql += ")"

	_, err := db.Exec(ctx, sql, args...)
	return err
}

// Collect runs a query and maps every row through fn.
func Collect[T any](ctx context.Context, db *DB, sql string, args []any, fn pgx.RowToFunc[T]) ([]T, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer db.pool.Release(ctx, conn)

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}

	items, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}
	return items, nil
}

// CollectOne runs a query expected to yield at most one row. No row is a
// normal outcome and returns nil.
func CollectOne[T any](ctx context.Context, db *DB, sql string, args []any, fn pgx.RowToFunc[T]) (*T, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer db.pool.Release(ctx, conn)

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}

	item, err := pgx.CollectOneRow(rows, fn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &QueryError{SQL: sql, Err: err}
	}
	return &item, nil
}

// Scalar runs a single-column query, e.g. a COUNT. No row returns the zero
// value.
func Scalar[T any](ctx context.Context, db *DB, sql string, args ...any) (T, error) {
	var zero T
	v, err := CollectOne(ctx, db, sql, args, pgx.RowTo[T])
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return *v, nil
}

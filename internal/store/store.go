// Package store holds the SQL for every entity. Queries are written with ?
// placeholders and rebound for the connected driver, so the same code runs on
// SQLite and PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned when a write violates a unique constraint.
var ErrDuplicate = errors.New("duplicate value")

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	sqlx.ExtContext
}

type Store struct {
	db *sqlx.DB
	// rowLocks is true when the driver supports SELECT ... FOR UPDATE.
	rowLocks bool
}

func New(db *sqlx.DB) *Store {
	return &Store{
		db:       db,
		rowLocks: db.DriverName() == "pgx",
	}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) forUpdate(query string) string {
	if s.rowLocks {
		return query + " FOR UPDATE"
	}
	return query
}

func get[T any](ctx context.Context, q Queryer, query string, args ...any) (*T, error) {
	var out T
	if err := sqlx.GetContext(ctx, q, &out, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, q Queryer, query string, args ...any) ([]T, error) {
	out := []T{}
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// listIn expands a single IN (?) clause for ids. An empty id set yields no rows.
func listIn[T any](ctx context.Context, q Queryer, query string, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	expanded, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	return list[T](ctx, q, expanded, args...)
}

func insertReturningID(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func exec(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

func exists(ctx context.Context, q Queryer, query string, args ...any) (bool, error) {
	var found bool
	if err := q.QueryRowxContext(ctx, q.Rebind("SELECT EXISTS ("+query+")"), args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func translate(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

// Package store persists conversations, messages and summaries.
//
// Find* methods return a nil record and a nil error when the row does not
// exist. Methods that modify a row by key return ErrNotFound when no row
// matched. Any other failure is wrapped as "db error: ...".
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a keyed write matched no row
var ErrNotFound = errors.New("not found")

// DBTX is the subset of database/sql used by the Postgres store.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Clock returns the current time; overridden in tests
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

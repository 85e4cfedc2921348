// Package dbx provides the small DB abstractions shared by repositories:
// DBTX, implemented by *sql.DB, *sql.Conn and *sql.Tx, plus a unit of work
// that runs a function inside a transaction on a dedicated connection.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

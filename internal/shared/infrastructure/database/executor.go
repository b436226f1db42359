package database

import (
	"context"
	"database/sql"
)

// Result is the outcome of an Exec.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs statements that need no driver-specific types, such as
// schema migrations and health pings.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
}

// Connection is an open database handle. Repositories reach the concrete
// pool or *sql.DB through the Pool() and DB() accessors of the
// implementations.
type Connection interface {
	Executor
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

type sqlResult struct {
	result sql.Result
}

func (r sqlResult) RowsAffected() (int64, error) {
	return r.result.RowsAffected()
}

// WrapSQLResult adapts a database/sql result.
func WrapSQLResult(r sql.Result) Result {
	return sqlResult{result: r}
}

package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// dbtx is the slice of sqlx shared by *sqlx.DB and *sqlx.Tx; repositories
// bind to whichever the store hands them.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullableInt64(value int64) *int64 {
	if value == 0 {
		return nil
	}
	return &value
}

// Row accessors for querycache result maps. lib/pq hands text columns back
// as []byte through MapScan, so every string read handles both.

func rowString(row map[string]any, column string) string {
	switch v := row[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowInt64(row map[string]any, column string) int64 {
	switch v := row[column].(type) {
	case int64:
		return v
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

func rowInt(row map[string]any, column string) int {
	return int(rowInt64(row, column))
}

func rowTime(row map[string]any, column string) *time.Time {
	if v, ok := row[column].(time.Time); ok {
		return &v
	}
	return nil
}

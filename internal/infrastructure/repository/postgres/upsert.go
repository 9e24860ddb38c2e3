package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
)

// upsertRow executes the shared insert-or-update primitive and reports which
// branch fired. Postgres exposes that through the xmax system column: a
// freshly inserted row has xmax 0, an updated one carries the transaction id
// that replaced it.
func upsertRow(ctx context.Context, db dbtx, table string, keyColumns []string, model any) (record.Upserted, error) {
	return upsertRowWhere(ctx, db, table, keyColumns, "", model)
}

// upsertRowWhere passes a conflict-target predicate through for keys whose
// uniqueness comes from a partial index.
func upsertRowWhere(ctx context.Context, db dbtx, table string, keyColumns []string, predicate string, model any) (record.Upserted, error) {
	query, args, err := qb.UpsertModelWhere(table, keyColumns, predicate, model)
	if err != nil {
		return record.Upserted{}, fmt.Errorf("build upsert %s query: %w", table, err)
	}

	var out struct {
		ID       int64 `db:"id"`
		Inserted bool  `db:"inserted"`
	}
	if err := db.GetContext(ctx, &out, query, args...); err != nil {
		return record.Upserted{}, fmt.Errorf("upsert %s: %w", table, err)
	}
	return record.Upserted{ID: out.ID, Inserted: out.Inserted}, nil
}

// insertIgnoreRow inserts and silently skips composite-key conflicts.
func insertIgnoreRow(ctx context.Context, db dbtx, table string, conflictColumns []string, model any) error {
	query, args, err := qb.InsertIgnoreModel(table, conflictColumns, model)
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

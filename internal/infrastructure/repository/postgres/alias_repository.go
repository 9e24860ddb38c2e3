package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
)

// AliasRepository reads the curated alias table. The pipeline never writes
// it; entries are maintained by hand when a raw spelling resists matching.
type AliasRepository struct {
	db dbtx
}

func NewAliasRepository(db dbtx) *AliasRepository {
	return &AliasRepository{db: db}
}

func (r *AliasRepository) ListByKind(ctx context.Context, kind alias.Kind) ([]alias.Alias, error) {
	query, args, err := qb.Select("id", "kind", "raw_name", "canonical_id").From("aliases").
		Where(qb.Eq("kind", string(kind))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select aliases query: %w", err)
	}

	var rows []aliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select aliases: %w", err)
	}
	out := make([]alias.Alias, 0, len(rows))
	for _, row := range rows {
		out = append(out, alias.Alias{
			ID:          row.ID,
			Kind:        alias.Kind(row.Kind),
			RawName:     row.RawName,
			CanonicalID: row.CanonicalID,
		})
	}
	return out, nil
}

type aliasTableModel struct {
	ID          int64  `db:"id"`
	Kind        string `db:"kind"`
	RawName     string `db:"raw_name"`
	CanonicalID int64  `db:"canonical_id"`
}

package memory

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/alias"
)

type AliasRepository struct {
	store *Store
}

func (r *AliasRepository) ListByKind(_ context.Context, kind alias.Kind) ([]alias.Alias, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []alias.Alias
	for _, a := range r.store.aliases {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

package memory

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/license"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type LicenseRepository struct {
	store *Store
}

func (r *LicenseRepository) Upsert(_ context.Context, l license.License) (record.Upserted, error) {
	if err := l.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate license: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.licenses {
		if existing.PlayerID == l.PlayerID && existing.Season == l.Season && existing.Kind == l.Kind {
			l.ID = id
			r.store.licenses[id] = l
			return record.Upserted{ID: id}, nil
		}
	}

	l.ID = r.store.nextID()
	r.store.licenses[l.ID] = l
	return record.Upserted{ID: l.ID, Inserted: true}, nil
}

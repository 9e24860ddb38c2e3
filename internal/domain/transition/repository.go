package transition

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	Upsert(ctx context.Context, t Transition) (record.Upserted, error)
}

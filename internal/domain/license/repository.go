package license

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	Upsert(ctx context.Context, l License) (record.Upserted, error)
}

package alias

import "context"

type Repository interface {
	ListByKind(ctx context.Context, kind Kind) ([]Alias, error)
}

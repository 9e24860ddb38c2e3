package participant

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	Upsert(ctx context.Context, p Participant) (record.Upserted, error)
	UpsertGroup(ctx context.Context, g Group) (record.Upserted, error)
	// ReplaceGroupMembers deletes the group's membership rows and re-inserts
	// the given participant ids with ignore-on-conflict semantics, so a
	// participant is never listed twice.
	ReplaceGroupMembers(ctx context.Context, groupID int64, participantIDs []int64) error
	ListGroupMembers(ctx context.Context, groupID int64) ([]int64, error)
}

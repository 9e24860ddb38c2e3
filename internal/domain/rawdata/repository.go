package rawdata

import "context"

// Repository appends scraper output and reads it back per run. Raw rows are
// immutable once written; new scrape runs supersede old ones by run id.
type Repository interface {
	NextRunID(ctx context.Context) (int64, error)

	AppendTournaments(ctx context.Context, rows []Tournament) error
	AppendClasses(ctx context.Context, rows []Class) error
	AppendParticipants(ctx context.Context, rows []Participant) error
	AppendLicenses(ctx context.Context, rows []License) error
	AppendRankingRows(ctx context.Context, rows []RankingRow) error
	AppendTransitions(ctx context.Context, rows []Transition) error

	ListTournaments(ctx context.Context, runID int64) ([]Tournament, error)
	ListClasses(ctx context.Context, runID int64) ([]Class, error)
	ListParticipants(ctx context.Context, runID int64) ([]Participant, error)
	ListLicenses(ctx context.Context, runID int64) ([]License, error)
	ListRankingRows(ctx context.Context, runID int64) ([]RankingRow, error)
	ListTransitions(ctx context.Context, runID int64) ([]Transition, error)
}

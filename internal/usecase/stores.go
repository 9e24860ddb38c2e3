package usecase

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/club"
	"github.com/mkrogh/ttsync/internal/domain/license"
	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/ranking"
	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	"github.com/mkrogh/ttsync/internal/domain/transition"
)

// Stores opens a unit of work for one pipeline run. The postgres
// implementation binds every repository to a single transaction; the memory
// implementation hands out the shared maps directly.
type Stores interface {
	Begin(ctx context.Context) (RunStores, error)
}

// RunStores is the repository set bound to one pipeline run. Commit makes
// the run's writes durable; Release returns the underlying connection and is
// safe to call after Commit.
type RunStores interface {
	Clubs() club.Repository
	Players() player.Repository
	Tournaments() tournament.Repository
	Classes() tournament.ClassRepository
	Stages() tournament.StageRepository
	Participants() participant.Repository
	Licenses() license.Repository
	RankingGroups() ranking.Repository
	Transitions() transition.Repository
	Aliases() alias.Repository
	RawData() rawdata.Repository

	Commit() error
	Release()
}

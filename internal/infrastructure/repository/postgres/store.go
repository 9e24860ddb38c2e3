package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/club"
	"github.com/mkrogh/ttsync/internal/domain/license"
	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/ranking"
	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	"github.com/mkrogh/ttsync/internal/domain/transition"
	"github.com/mkrogh/ttsync/internal/usecase"
)

// Store hands the pipeline a transaction-bound repository set per run.
// Repositories constructed inside Begin share the transaction and carry
// fresh lookup caches, so nothing cached in one run leaks into the next.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (usecase.RunStores, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin pipeline tx: %w", err)
	}
	return &runStores{
		tx:           tx,
		clubs:        NewClubRepository(tx),
		players:      NewPlayerRepository(tx),
		tournaments:  NewTournamentRepository(tx),
		classes:      NewClassRepository(tx),
		stages:       NewStageRepository(tx),
		participants: NewParticipantRepository(tx),
		licenses:     NewLicenseRepository(tx),
		groups:       NewRankingGroupRepository(tx),
		transitions:  NewTransitionRepository(tx),
		aliases:      NewAliasRepository(tx),
		rawData:      NewRawDataRepository(tx),
	}, nil
}

type runStores struct {
	tx        *sqlx.Tx
	committed bool

	clubs        *ClubRepository
	players      *PlayerRepository
	tournaments  *TournamentRepository
	classes      *ClassRepository
	stages       *StageRepository
	participants *ParticipantRepository
	licenses     *LicenseRepository
	groups       *RankingGroupRepository
	transitions  *TransitionRepository
	aliases      *AliasRepository
	rawData      *RawDataRepository
}

func (s *runStores) Clubs() club.Repository               { return s.clubs }
func (s *runStores) Players() player.Repository           { return s.players }
func (s *runStores) Tournaments() tournament.Repository   { return s.tournaments }
func (s *runStores) Classes() tournament.ClassRepository  { return s.classes }
func (s *runStores) Stages() tournament.StageRepository   { return s.stages }
func (s *runStores) Participants() participant.Repository { return s.participants }
func (s *runStores) Licenses() license.Repository         { return s.licenses }
func (s *runStores) RankingGroups() ranking.Repository    { return s.groups }
func (s *runStores) Transitions() transition.Repository   { return s.transitions }
func (s *runStores) Aliases() alias.Repository            { return s.aliases }
func (s *runStores) RawData() rawdata.Repository          { return s.rawData }

func (s *runStores) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit pipeline tx: %w", err)
	}
	s.committed = true
	return nil
}

// Release rolls back when Commit never happened and always returns the
// connection to the pool.
func (s *runStores) Release() {
	if s.committed {
		return
	}
	_ = s.tx.Rollback()
}

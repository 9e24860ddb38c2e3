// Package memory backs the pipeline with in-process maps. It mirrors the
// postgres repositories' matching and upsert semantics closely enough that
// the resolution tests can run against it without a database.
package memory

import (
	"context"
	"sync"

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

// Store is the shared table set. Writes apply immediately; Begin hands out
// views rather than snapshots, and Commit and Release are no-ops, which is
// fine for single-writer pipeline tests.
type Store struct {
	mu  sync.Mutex
	seq int64

	clubs         map[int64]club.Club
	players       map[int64]player.Player
	tournaments   map[int64]tournament.Tournament
	classes       map[int64]tournament.Class
	stages        []tournament.Stage
	participants  map[int64]participant.Participant
	groups        map[int64]participant.Group
	groupMembers  map[int64]map[int64]bool
	licenses      map[int64]license.License
	rankingGroups map[int64]ranking.Group
	transitions   map[int64]transition.Transition
	aliases       []alias.Alias

	runSeq          int64
	rawTournaments  map[int64][]rawdata.Tournament
	rawClasses      map[int64][]rawdata.Class
	rawParticipants map[int64][]rawdata.Participant
	rawLicenses     map[int64][]rawdata.License
	rawRanking      map[int64][]rawdata.RankingRow
	rawTransitions  map[int64][]rawdata.Transition
}

func NewStore() *Store {
	return &Store{
		clubs:           make(map[int64]club.Club),
		players:         make(map[int64]player.Player),
		tournaments:     make(map[int64]tournament.Tournament),
		classes:         make(map[int64]tournament.Class),
		participants:    make(map[int64]participant.Participant),
		groups:          make(map[int64]participant.Group),
		groupMembers:    make(map[int64]map[int64]bool),
		licenses:        make(map[int64]license.License),
		rankingGroups:   make(map[int64]ranking.Group),
		transitions:     make(map[int64]transition.Transition),
		rawTournaments:  make(map[int64][]rawdata.Tournament),
		rawClasses:      make(map[int64][]rawdata.Class),
		rawParticipants: make(map[int64][]rawdata.Participant),
		rawLicenses:     make(map[int64][]rawdata.License),
		rawRanking:      make(map[int64][]rawdata.RankingRow),
		rawTransitions:  make(map[int64][]rawdata.Transition),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// SeedStages installs the fixed stage lookup rows.
func (s *Store) SeedStages(stages []tournament.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append([]tournament.Stage{}, stages...)
}

// SeedAliases installs curated alias entries.
func (s *Store) SeedAliases(aliases []alias.Alias) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases = append(s.aliases, aliases...)
}

func (s *Store) Begin(_ context.Context) (usecase.RunStores, error) {
	return &runStores{store: s}, nil
}

type runStores struct {
	store *Store
}

func (r *runStores) Clubs() club.Repository               { return &ClubRepository{store: r.store} }
func (r *runStores) Players() player.Repository           { return &PlayerRepository{store: r.store} }
func (r *runStores) Tournaments() tournament.Repository   { return &TournamentRepository{store: r.store} }
func (r *runStores) Classes() tournament.ClassRepository  { return &ClassRepository{store: r.store} }
func (r *runStores) Stages() tournament.StageRepository   { return &StageRepository{store: r.store} }
func (r *runStores) Participants() participant.Repository { return &ParticipantRepository{store: r.store} }
func (r *runStores) Licenses() license.Repository         { return &LicenseRepository{store: r.store} }
func (r *runStores) RankingGroups() ranking.Repository    { return &RankingGroupRepository{store: r.store} }
func (r *runStores) Transitions() transition.Repository   { return &TransitionRepository{store: r.store} }
func (r *runStores) Aliases() alias.Repository            { return &AliasRepository{store: r.store} }
func (r *runStores) RawData() rawdata.Repository          { return &RawDataRepository{store: r.store} }

func (r *runStores) Commit() error { return nil }
func (r *runStores) Release()      {}

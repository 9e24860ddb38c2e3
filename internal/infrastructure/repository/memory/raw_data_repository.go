package memory

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/rawdata"
)

type RawDataRepository struct {
	store *Store
}

func (r *RawDataRepository) NextRunID(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.runSeq++
	return r.store.runSeq, nil
}

func (r *RawDataRepository) AppendTournaments(_ context.Context, rows []rawdata.Tournament) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawTournaments[row.RunID] = append(r.store.rawTournaments[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) AppendClasses(_ context.Context, rows []rawdata.Class) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawClasses[row.RunID] = append(r.store.rawClasses[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) AppendParticipants(_ context.Context, rows []rawdata.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawParticipants[row.RunID] = append(r.store.rawParticipants[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) AppendLicenses(_ context.Context, rows []rawdata.License) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawLicenses[row.RunID] = append(r.store.rawLicenses[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) AppendRankingRows(_ context.Context, rows []rawdata.RankingRow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawRanking[row.RunID] = append(r.store.rawRanking[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) AppendTransitions(_ context.Context, rows []rawdata.Transition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		r.store.rawTransitions[row.RunID] = append(r.store.rawTransitions[row.RunID], row)
	}
	return nil
}

func (r *RawDataRepository) ListTournaments(_ context.Context, runID int64) ([]rawdata.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.Tournament{}, r.store.rawTournaments[runID]...), nil
}

func (r *RawDataRepository) ListClasses(_ context.Context, runID int64) ([]rawdata.Class, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.Class{}, r.store.rawClasses[runID]...), nil
}

func (r *RawDataRepository) ListParticipants(_ context.Context, runID int64) ([]rawdata.Participant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.Participant{}, r.store.rawParticipants[runID]...), nil
}

func (r *RawDataRepository) ListLicenses(_ context.Context, runID int64) ([]rawdata.License, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.License{}, r.store.rawLicenses[runID]...), nil
}

func (r *RawDataRepository) ListRankingRows(_ context.Context, runID int64) ([]rawdata.RankingRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.RankingRow{}, r.store.rawRanking[runID]...), nil
}

func (r *RawDataRepository) ListTransitions(_ context.Context, runID int64) ([]rawdata.Transition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]rawdata.Transition{}, r.store.rawTransitions[runID]...), nil
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	"github.com/mkrogh/ttsync/internal/infrastructure/repository/memory"
	"github.com/mkrogh/ttsync/internal/platform/logging"
	"github.com/mkrogh/ttsync/internal/usecase"
)

func newSeededStore() *memory.Store {
	store := memory.NewStore()
	store.SeedStages([]tournament.Stage{
		{ID: 1, Code: "P", Name: "Pool"},
		{ID: 2, Code: "K", Name: "Knockout"},
	})
	return store
}

func meta(runID int64, source record.Source, row int) record.Meta {
	return record.Meta{RunID: runID, Source: source, RowNum: row}
}

// seedPortalRun appends one consistent scrape of every source and returns
// the run id.
func seedPortalRun(t *testing.T, store *memory.Store) int64 {
	t.Helper()
	ctx := context.Background()

	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	raw := rs.RawData()

	runID, err := raw.NextRunID(ctx)
	require.NoError(t, err)

	require.NoError(t, raw.AppendTournaments(ctx, []rawdata.Tournament{{
		Meta:       meta(runID, record.SourceTournament, 0),
		ExternalID: "T1",
		Name:       "Vestegnen Open",
		Season:     "2025/2026",
		StartDate:  "2025-10-04",
	}}))

	require.NoError(t, raw.AppendClasses(ctx, []rawdata.Class{{
		Meta:                 meta(runID, record.SourceTournament, 0),
		TournamentExternalID: "T1",
		ExternalID:           "C1",
		Name:                 "Herresingle A",
		Date:                 "2025-10-04",
	}}))

	require.NoError(t, raw.AppendLicenses(ctx, []rawdata.License{
		{
			Meta:             meta(runID, record.SourceLicenses, 0),
			PlayerExternalID: "12345",
			FirstName:        "Mads",
			LastName:         "Kruse",
			BirthYear:        "1987",
			ClubName:         "Brønshøj BTK",
			Season:           "2025/2026",
			Kind:             "standard",
			ValidFrom:        "2025-07-01",
		},
		{
			Meta:             meta(runID, record.SourceLicenses, 1),
			PlayerExternalID: "67890",
			FirstName:        "Lise",
			LastName:         "Holm",
			BirthYear:        "1994",
			ClubName:         "Virum-Sørgenfri",
			Season:           "2025/2026",
		},
	}))

	require.NoError(t, raw.AppendRankingRows(ctx, []rawdata.RankingRow{{
		Meta:             meta(runID, record.SourceRanking, 0),
		GroupExternalID:  "G1",
		GroupName:        "Herrer Elite",
		PlayerExternalID: "12345",
		FirstName:        "Mads",
		LastName:         "Kruse",
		BirthYear:        "1987",
		ClubName:         "Bronshoj BTK",
		Points:           "2310",
	}}))

	require.NoError(t, raw.AppendParticipants(ctx, []rawdata.Participant{
		{
			Meta:                 meta(runID, record.SourceTournament, 0),
			TournamentExternalID: "T1",
			ClassExternalID:      "C1",
			PlayerExternalID:     "12345",
			PlayerName:           "Mads Kruse",
			ClubName:             "Brønshøj BTK",
			GroupDescription:     "Pulje 1",
			StageCode:            "P",
			Seed:                 "1",
		},
		{
			Meta:                 meta(runID, record.SourceTournament, 1),
			TournamentExternalID: "T1",
			ClassExternalID:      "C1",
			PlayerName:           "Ole Madsen",
			ClubName:             "Virum/Sorgenfri",
			GroupDescription:     "Pulje 1",
			StageCode:            "P",
		},
	}))

	require.NoError(t, raw.AppendTransitions(ctx, []rawdata.Transition{{
		Meta:             meta(runID, record.SourceTournament, 0),
		PlayerExternalID: "12345",
		PlayerName:       "Mads Kruse",
		FromClubName:     "Brønshøj BTK",
		ToClubName:       "Virum-Sørgenfri",
		Date:             "2026-01-01",
	}}))

	return runID
}

func stageReport(t *testing.T, report *usecase.RunReport, name string) usecase.StageReport {
	t.Helper()
	for _, stage := range report.Stages {
		if stage.Stage == name {
			return stage
		}
	}
	t.Fatalf("stage %q missing from report %+v", name, report.Stages)
	return usecase.StageReport{}
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	runID := seedPortalRun(t, store)

	svc := usecase.NewPipelineService(store, usecase.AllStages(), logging.NewNop())
	report, err := svc.Run(ctx, runID)
	require.NoError(t, err)
	require.Empty(t, report.FailedStages())

	require.Equal(t, 1, stageReport(t, report, "tournaments").Inserted)
	require.Equal(t, 1, stageReport(t, report, "classes").Inserted)
	require.Equal(t, 1, stageReport(t, report, "ranking_groups").Inserted)
	require.Equal(t, 2, stageReport(t, report, "licenses").Inserted)
	require.Equal(t, 1, stageReport(t, report, "transitions").Inserted)
	require.Equal(t, 2, stageReport(t, report, "participants").Inserted)

	// "Brønshøj BTK" and "Virum-Sørgenfri"; every other spelling normalizes
	// onto one of them.
	require.Equal(t, 2, stageReport(t, report, "clubs").Inserted)
	// Two licensed players plus the name-only sign-up.
	require.Equal(t, 3, stageReport(t, report, "players").Inserted)

	rs, err := store.Begin(ctx)
	require.NoError(t, err)

	mads, err := rs.Players().FindByExternalID(ctx, "12345")
	require.NoError(t, err)
	require.NotNil(t, mads)
	require.Equal(t, "Mads", mads.FirstName)

	clubs, err := rs.Clubs().FindByNameKey(ctx, "bronshoj btk")
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	require.Equal(t, clubs[0].ID, mads.ClubID)
}

func TestPipelineRun_SecondRunIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	svc := usecase.NewPipelineService(store, usecase.AllStages(), logging.NewNop())

	first, err := svc.Run(ctx, seedPortalRun(t, store))
	require.NoError(t, err)
	require.Positive(t, first.TotalInserted())

	second, err := svc.Run(ctx, seedPortalRun(t, store))
	require.NoError(t, err)
	require.Empty(t, second.FailedStages())
	require.Zero(t, second.TotalInserted(), "re-resolving identical raw data must not create rows")

	// Still exactly one canonical row per entity.
	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	players, err := rs.Players().FindByNameKey(ctx, "mads kruse")
	require.NoError(t, err)
	require.Len(t, players, 1)
}

func TestPipelineRun_LicenseRegisterOwnsPlayerIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	raw := rs.RawData()
	runID, err := raw.NextRunID(ctx)
	require.NoError(t, err)

	// The ranking export disagrees with the register about the same player.
	require.NoError(t, raw.AppendLicenses(ctx, []rawdata.License{{
		Meta:             meta(runID, record.SourceLicenses, 0),
		PlayerExternalID: "12345",
		FirstName:        "Mads",
		LastName:         "Kruse Jensen",
		BirthYear:        "1987",
		ClubName:         "Brønshøj BTK",
		Season:           "2025/2026",
	}}))
	require.NoError(t, raw.AppendRankingRows(ctx, []rawdata.RankingRow{{
		Meta:             meta(runID, record.SourceRanking, 0),
		GroupName:        "Herrer Elite",
		PlayerExternalID: "12345",
		FirstName:        "M.",
		LastName:         "Kruse",
		BirthYear:        "1987",
		ClubName:         "Hillerød GI",
	}}))

	svc := usecase.NewPipelineService(store, usecase.AllStages(), logging.NewNop())
	report, err := svc.Run(ctx, runID)
	require.NoError(t, err)
	require.Empty(t, report.FailedStages())
	require.Equal(t, 1, stageReport(t, report, "players").Inserted)

	player, err := rs.Players().FindByExternalID(ctx, "12345")
	require.NoError(t, err)
	require.NotNil(t, player)
	require.Equal(t, "Kruse Jensen", player.LastName, "register identity must beat the ranking export")

	registerClub, err := rs.Clubs().FindByNameKey(ctx, "bronshoj btk")
	require.NoError(t, err)
	require.Len(t, registerClub, 1)
	require.Equal(t, registerClub[0].ID, player.ClubID)
}

func TestPipelineRun_MalformedRowSkippedOthersResolved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	raw := rs.RawData()
	runID, err := raw.NextRunID(ctx)
	require.NoError(t, err)

	rows := make([]rawdata.License, 0, 10)
	for i := 0; i < 10; i++ {
		row := rawdata.License{
			Meta:             meta(runID, record.SourceLicenses, i),
			PlayerExternalID: string(rune('A' + i)),
			FirstName:        "Spiller",
			LastName:         "Nummer",
			BirthYear:        "1990",
			ClubName:         "Brønshøj BTK",
			Season:           "2025/2026",
		}
		if i == 4 {
			row.LastName = ""
		}
		rows = append(rows, row)
	}
	require.NoError(t, raw.AppendLicenses(ctx, rows))

	svc := usecase.NewPipelineService(store, usecase.StageToggles{Licenses: true}, logging.NewNop())
	report, err := svc.Run(ctx, runID)
	require.NoError(t, err)
	require.Empty(t, report.FailedStages())

	licenses := stageReport(t, report, "licenses")
	require.Equal(t, 10, licenses.Rows)
	require.Equal(t, 9, licenses.Inserted)
	require.Equal(t, 1, licenses.Skipped)
	require.Equal(t, 1, licenses.SkipReasons["invalid row"])
}

func TestPipelineRun_GroupMembershipRefreshedWholesale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	svc := usecase.NewPipelineService(store, usecase.AllStages(), logging.NewNop())

	_, err := svc.Run(ctx, seedPortalRun(t, store))
	require.NoError(t, err)

	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	tourn, err := rs.Tournaments().FindByExternalID(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, tourn)
	class, err := rs.Classes().FindByNaturalKey(ctx, tourn.ID, "C1")
	require.NoError(t, err)
	require.NotNil(t, class)

	group, err := rs.Participants().UpsertGroup(ctx, participant.Group{
		ClassID:     class.ID,
		Description: "Pulje 1",
		StageID:     1,
	})
	require.NoError(t, err)

	members, err := rs.Participants().ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Next scrape moves Ole Madsen to Pulje 2; Pulje 1 must shrink.
	rs2, err := store.Begin(ctx)
	require.NoError(t, err)
	raw := rs2.RawData()
	runID, err := raw.NextRunID(ctx)
	require.NoError(t, err)
	require.NoError(t, raw.AppendTournaments(ctx, []rawdata.Tournament{{
		Meta: meta(runID, record.SourceTournament, 0), ExternalID: "T1", Name: "Vestegnen Open",
	}}))
	require.NoError(t, raw.AppendClasses(ctx, []rawdata.Class{{
		Meta: meta(runID, record.SourceTournament, 0), TournamentExternalID: "T1", ExternalID: "C1", Name: "Herresingle A",
	}}))
	require.NoError(t, raw.AppendParticipants(ctx, []rawdata.Participant{
		{
			Meta:                 meta(runID, record.SourceTournament, 0),
			TournamentExternalID: "T1", ClassExternalID: "C1",
			PlayerExternalID: "12345", PlayerName: "Mads Kruse",
			GroupDescription: "Pulje 1", StageCode: "P",
		},
		{
			Meta:                 meta(runID, record.SourceTournament, 1),
			TournamentExternalID: "T1", ClassExternalID: "C1",
			PlayerName:       "Ole Madsen",
			GroupDescription: "Pulje 2", StageCode: "P",
		},
	}))

	_, err = svc.Run(ctx, runID)
	require.NoError(t, err)

	members, err = rs.Participants().ListGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1, "stale member must be gone after the refresh")
}

func TestPipelineRun_DisabledStageLeftOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	runID := seedPortalRun(t, store)

	toggles := usecase.AllStages()
	toggles.Participants = false
	svc := usecase.NewPipelineService(store, toggles, logging.NewNop())

	report, err := svc.Run(ctx, runID)
	require.NoError(t, err)
	for _, stage := range report.Stages {
		require.NotEqual(t, "participants", stage.Stage)
	}
}

func TestPipelineRun_RejectsNonPositiveRunID(t *testing.T) {
	t.Parallel()

	svc := usecase.NewPipelineService(newSeededStore(), usecase.AllStages(), logging.NewNop())
	_, err := svc.Run(context.Background(), 0)
	require.ErrorIs(t, err, usecase.ErrInvalidInput)
}

type brokenStores struct {
	err error
}

func (b brokenStores) Begin(context.Context) (usecase.RunStores, error) { return nil, b.err }

func TestPipelineRun_BeginFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	svc := usecase.NewPipelineService(brokenStores{err: errors.New("connection refused")}, usecase.AllStages(), logging.NewNop())
	_, err := svc.Run(context.Background(), 1)
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}

type failingRawData struct {
	rawdata.Repository
	err error
}

func (f failingRawData) ListTransitions(context.Context, int64) ([]rawdata.Transition, error) {
	return nil, f.err
}

type failingRunStores struct {
	usecase.RunStores
	raw rawdata.Repository
}

func (f failingRunStores) RawData() rawdata.Repository { return f.raw }

type failingStores struct {
	inner usecase.Stores
	err   error
}

func (f failingStores) Begin(ctx context.Context) (usecase.RunStores, error) {
	rs, err := f.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingRunStores{RunStores: rs, raw: failingRawData{Repository: rs.RawData(), err: f.err}}, nil
}

func TestPipelineRun_StageFailureIsIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newSeededStore()
	runID := seedPortalRun(t, store)
	stageErr := errors.New("transitions feed unavailable")

	svc := usecase.NewPipelineService(failingStores{inner: store, err: stageErr}, usecase.AllStages(), logging.NewNop())
	report, err := svc.Run(ctx, runID)
	require.NoError(t, err, "a stage failure must not fail the run")

	require.Equal(t, []string{"transitions"}, report.FailedStages())
	require.ErrorIs(t, stageReport(t, report, "transitions").Err, stageErr)

	// The later participants stage still ran and resolved its rows.
	require.Equal(t, 2, stageReport(t, report, "participants").Inserted)

	// Completed stages were committed.
	rs, err := store.Begin(ctx)
	require.NoError(t, err)
	tourn, err := rs.Tournaments().FindByExternalID(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, tourn)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/license"
	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	"github.com/mkrogh/ttsync/internal/domain/transition"
	"github.com/mkrogh/ttsync/internal/platform/logging"
	"github.com/mkrogh/ttsync/internal/platform/normalize"
)

// StageToggles enables pipeline stages independently; a disabled stage is
// skipped without an entry in the run report.
type StageToggles struct {
	Tournaments   bool
	Classes       bool
	RankingGroups bool
	Licenses      bool
	Transitions   bool
	Participants  bool
}

// AllStages enables everything; the zero value disables everything.
func AllStages() StageToggles {
	return StageToggles{
		Tournaments:   true,
		Classes:       true,
		RankingGroups: true,
		Licenses:      true,
		Transitions:   true,
		Participants:  true,
	}
}

const defaultLicenseKind = "standard"

// PipelineService resolves one scrape run's raw rows into the canonical
// tables. Stage order is fixed: tournaments, classes, ranking groups,
// licenses, transitions, participants; clubs and players are resolved
// inside the stages that reference them. A stage failure is logged and
// reported but never stops later stages, and the run's transaction is
// committed regardless so completed stages survive.
type PipelineService struct {
	stores  Stores
	toggles StageToggles
	logger  *logging.Logger
}

func NewPipelineService(stores Stores, toggles StageToggles, logger *logging.Logger) *PipelineService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PipelineService{stores: stores, toggles: toggles, logger: logger}
}

// pipelineRun carries the per-run state shared between stages: the bound
// repositories, the loaded alias sets and the cross-stage resolvers.
type pipelineRun struct {
	stores RunStores
	runID  int64
	logger *logging.Logger

	clubs        *clubResolver
	players      *playerResolver
	tournaments  *tournamentResolver
	groups       *rankingGroupResolver
	classAliases *alias.Set
}

func (s *PipelineService) Run(ctx context.Context, runID int64) (*RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.Run")
	defer span.End()

	if runID <= 0 {
		return nil, fmt.Errorf("%w: run id must be greater than zero", ErrInvalidInput)
	}

	started := time.Now()
	stores, err := s.stores.Begin(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "begin pipeline run"), ErrDependencyUnavailable)
	}
	defer stores.Release()

	run, err := s.newRun(ctx, stores, runID)
	if err != nil {
		return nil, err
	}

	report := &RunReport{RunID: runID}
	stages := []struct {
		name    string
		enabled bool
		fn      func(context.Context) (BatchReport, error)
	}{
		{"tournaments", s.toggles.Tournaments, run.resolveTournaments},
		{"classes", s.toggles.Classes, run.resolveClasses},
		{"ranking_groups", s.toggles.RankingGroups, run.resolveRankingGroups},
		{"licenses", s.toggles.Licenses, run.resolveLicenses},
		{"transitions", s.toggles.Transitions, run.resolveTransitions},
		{"participants", s.toggles.Participants, run.resolveParticipants},
	}
	for _, stage := range stages {
		if !stage.enabled {
			s.logger.DebugContext(ctx, "pipeline stage disabled", "stage", stage.name, "run_id", runID)
			continue
		}
		rep, err := stage.fn(ctx)
		report.add(stage.name, rep, err)
		if err != nil {
			// Fault isolation: the stage's own error surfaces in the
			// report while every later stage still runs.
			s.logger.ErrorContext(ctx, "pipeline stage failed",
				"stage", stage.name, "run_id", runID, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "pipeline stage done",
			"stage", stage.name, "run_id", runID,
			"rows", rep.Rows, "inserted", rep.Inserted, "updated", rep.Updated,
			"skipped", rep.Skipped, "ambiguous", rep.Ambiguous)
	}
	report.add("clubs", run.clubs.Report(), nil)
	report.add("players", run.players.Report(), nil)

	// Completed stages are kept even when a later stage failed; the report
	// names the failures.
	if err := stores.Commit(); err != nil {
		return report, errors.Mark(errors.Wrap(err, "commit pipeline run"), ErrDependencyUnavailable)
	}

	totals := report.Totals()
	s.logger.InfoContext(ctx, "pipeline run committed",
		"run_id", runID,
		"inserted", totals.Inserted,
		"updated", totals.Updated,
		"skipped", totals.Skipped,
		"ambiguous", totals.Ambiguous,
		"failed_stages", len(report.FailedStages()),
		"duration_ms", time.Since(started).Milliseconds())
	return report, nil
}

func (s *PipelineService) newRun(ctx context.Context, stores RunStores, runID int64) (*pipelineRun, error) {
	sets := make(map[alias.Kind]*alias.Set, 5)
	for _, kind := range []alias.Kind{
		alias.KindClub, alias.KindPlayer, alias.KindTournament,
		alias.KindClass, alias.KindRankingGroup,
	} {
		entries, err := stores.Aliases().ListByKind(ctx, kind)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s aliases", kind)
		}
		sets[kind] = alias.NewSet(entries)
	}

	return &pipelineRun{
		stores:       stores,
		runID:        runID,
		logger:       s.logger,
		clubs:        newClubResolver(stores.Clubs(), sets[alias.KindClub]),
		players:      newPlayerResolver(stores.Players(), sets[alias.KindPlayer]),
		tournaments:  newTournamentResolver(stores.Tournaments(), sets[alias.KindTournament]),
		groups:       newRankingGroupResolver(stores.RankingGroups(), sets[alias.KindRankingGroup]),
		classAliases: sets[alias.KindClass],
	}, nil
}

func (r *pipelineRun) resolveTournaments(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	rows, err := r.stores.RawData().ListTournaments(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw tournaments")
	}
	rows = dedupeByExternalID(rows,
		func(t rawdata.Tournament) string { return t.ExternalID },
		func(t rawdata.Tournament) record.Meta { return t.Meta })

	for _, raw := range rows {
		rep.Rows++
		if err := validate.Struct(raw); err != nil {
			rep.skip("invalid row")
			continue
		}
		if _, err := r.tournaments.Resolve(ctx, raw, &rep); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				rep.skip("invalid row")
				continue
			}
			return rep, err
		}
	}
	return rep, nil
}

func (r *pipelineRun) resolveClasses(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	rows, err := r.stores.RawData().ListClasses(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw classes")
	}

	seen := make(map[string]bool, len(rows))
	for _, raw := range rows {
		rep.Rows++
		if err := validate.Struct(raw); err != nil {
			rep.skip("invalid row")
			continue
		}
		dupKey := raw.TournamentExternalID + "\x00" + raw.ExternalID
		if seen[dupKey] {
			rep.skip("duplicate row")
			continue
		}
		seen[dupKey] = true

		tournamentID, ok, err := r.tournaments.IDByExternalID(ctx, raw.TournamentExternalID)
		if err != nil {
			return rep, err
		}
		if !ok {
			rep.skip("unknown tournament")
			continue
		}
		date, err := parseDate(raw.Date)
		if err != nil {
			rep.skip("invalid date")
			continue
		}

		up, err := r.stores.Classes().Upsert(ctx, tournament.Class{
			TournamentID: tournamentID,
			ExternalID:   raw.ExternalID,
			Name:         raw.Name,
			NameKey:      normalize.Key(raw.Name),
			Date:         date,
		})
		if err != nil {
			return rep, errors.Wrapf(err, "upsert class %s", raw.ExternalID)
		}
		rep.record(up)
	}
	return rep, nil
}

func (r *pipelineRun) resolveRankingGroups(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	rows, err := r.stores.RawData().ListRankingRows(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw ranking rows")
	}

	for _, raw := range rows {
		rep.Rows++
		if raw.GroupName == "" {
			rep.skip("missing group name")
			continue
		}
		if _, err := r.groups.Resolve(ctx, raw.GroupExternalID, raw.GroupName, &rep); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				rep.skip("invalid row")
				continue
			}
			return rep, err
		}
	}
	return rep, nil
}

// resolveLicenses canonicalizes player identity from the license register
// and the ranking export together, then writes the season licenses. Both
// sources carry full identity; the dedupe keeps the register's claim when
// they share an external id.
func (r *pipelineRun) resolveLicenses(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	licRows, err := r.stores.RawData().ListLicenses(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw licenses")
	}
	rankRows, err := r.stores.RawData().ListRankingRows(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw ranking rows")
	}

	identities := make([]playerIdentity, 0, len(licRows)+len(rankRows))
	type licenseWrite struct {
		raw    rawdata.License
		clubID int64
	}
	writes := make([]licenseWrite, 0, len(licRows))

	for _, raw := range licRows {
		rep.Rows++
		if err := validate.Struct(raw); err != nil {
			rep.skip("invalid row")
			continue
		}
		birthYear, err := parseBirthYear(raw.BirthYear)
		if err != nil {
			rep.skip("invalid birth year")
			continue
		}
		clubID, err := r.clubs.Resolve(ctx, "", raw.ClubName)
		if err != nil {
			return rep, err
		}
		identities = append(identities, playerIdentity{
			ExternalID: raw.PlayerExternalID,
			FirstName:  raw.FirstName,
			LastName:   raw.LastName,
			BirthYear:  birthYear,
			ClubID:     clubID,
			Meta:       raw.Meta,
		})
		writes = append(writes, licenseWrite{raw: raw, clubID: clubID})
	}

	// Ranking rows contribute identity only; invalid ones are the ranking
	// stage's problem and are silently dropped here.
	for _, raw := range rankRows {
		if err := validate.Struct(raw); err != nil {
			continue
		}
		birthYear, err := parseBirthYear(raw.BirthYear)
		if err != nil {
			continue
		}
		var clubID int64
		if raw.ClubName != "" {
			clubID, err = r.clubs.Resolve(ctx, "", raw.ClubName)
			if err != nil {
				return rep, err
			}
		}
		identities = append(identities, playerIdentity{
			ExternalID: raw.PlayerExternalID,
			FirstName:  raw.FirstName,
			LastName:   raw.LastName,
			BirthYear:  birthYear,
			ClubID:     clubID,
			Meta:       raw.Meta,
		})
	}

	// One identity per external id survives (register beats ranking); the
	// license writes below still cover every valid register row, so a
	// player holding licenses for several seasons keeps them all.
	identities = dedupeByExternalID(identities,
		func(p playerIdentity) string { return p.ExternalID },
		func(p playerIdentity) record.Meta { return p.Meta })
	for _, identity := range identities {
		if _, err := r.players.Resolve(ctx, identity); err != nil {
			return rep, err
		}
	}

	for _, write := range writes {
		playerID, ok, err := r.players.IDByExternalID(ctx, write.raw.PlayerExternalID)
		if err != nil {
			return rep, err
		}
		if !ok {
			rep.skip("unknown player")
			continue
		}

		kind := write.raw.Kind
		if kind == "" {
			kind = defaultLicenseKind
		}
		validFrom, err := parseDate(write.raw.ValidFrom)
		if err != nil {
			rep.skip("invalid valid-from date")
			continue
		}
		up, err := r.stores.Licenses().Upsert(ctx, license.License{
			PlayerID:  playerID,
			ClubID:    write.clubID,
			Season:    write.raw.Season,
			Kind:      kind,
			ValidFrom: validFrom,
		})
		if err != nil {
			return rep, errors.Wrapf(err, "upsert license for player %s", write.raw.PlayerExternalID)
		}
		rep.record(up)
	}
	return rep, nil
}

func (r *pipelineRun) resolveTransitions(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	rows, err := r.stores.RawData().ListTransitions(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw transitions")
	}

	for _, raw := range rows {
		rep.Rows++
		if err := validate.Struct(raw); err != nil {
			rep.skip("invalid row")
			continue
		}
		effective, err := parseDate(raw.Date)
		if err != nil || effective == nil {
			rep.skip("invalid date")
			continue
		}

		playerID, ok, err := r.players.IDByExternalID(ctx, raw.PlayerExternalID)
		if err != nil {
			return rep, err
		}
		if !ok {
			if raw.PlayerName == "" {
				rep.skip("unknown player")
				continue
			}
			playerID, err = r.players.ResolveByName(ctx, raw.PlayerName, 0)
			if err != nil {
				return rep, err
			}
		}

		var fromClubID int64
		if raw.FromClubName != "" {
			fromClubID, err = r.clubs.Resolve(ctx, "", raw.FromClubName)
			if err != nil {
				return rep, err
			}
		}
		toClubID, err := r.clubs.Resolve(ctx, "", raw.ToClubName)
		if err != nil {
			return rep, err
		}

		up, err := r.stores.Transitions().Upsert(ctx, transition.Transition{
			PlayerID:      playerID,
			FromClubID:    fromClubID,
			ToClubID:      toClubID,
			EffectiveDate: *effective,
		})
		if err != nil {
			return rep, errors.Wrapf(err, "upsert transition for player %s", raw.PlayerExternalID)
		}
		rep.record(up)
	}
	return rep, nil
}

func (r *pipelineRun) resolveParticipants(ctx context.Context) (BatchReport, error) {
	var rep BatchReport
	rows, err := r.stores.RawData().ListParticipants(ctx, r.runID)
	if err != nil {
		return rep, errors.Wrap(err, "list raw participants")
	}
	stages, err := r.stores.Stages().ListAll(ctx)
	if err != nil {
		return rep, errors.Wrap(err, "list stages")
	}
	stageByCode := make(map[string]int64, len(stages))
	for _, s := range stages {
		stageByCode[s.Code] = s.ID
	}

	classIDs := make(map[string]int64, 32)
	groupMembers := make(map[int64][]int64)

	for _, raw := range rows {
		rep.Rows++
		if err := validate.Struct(raw); err != nil {
			rep.skip("invalid row")
			continue
		}

		classKey := raw.TournamentExternalID + "\x00" + raw.ClassExternalID
		classID, ok := classIDs[classKey]
		if !ok {
			tournamentID, found, err := r.tournaments.IDByExternalID(ctx, raw.TournamentExternalID)
			if err != nil {
				return rep, err
			}
			if !found {
				rep.skip("unknown tournament")
				continue
			}
			class, err := r.stores.Classes().FindByNaturalKey(ctx, tournamentID, raw.ClassExternalID)
			if err != nil {
				return rep, errors.Wrapf(err, "find class %s", raw.ClassExternalID)
			}
			if class == nil {
				rep.skip("unknown class")
				continue
			}
			classID = class.ID
			classIDs[classKey] = classID
		}

		var clubID int64
		if raw.ClubName != "" {
			clubID, err = r.clubs.Resolve(ctx, "", raw.ClubName)
			if err != nil {
				return rep, err
			}
		}

		var playerID int64
		found := false
		if raw.PlayerExternalID != "" {
			playerID, found, err = r.players.IDByExternalID(ctx, raw.PlayerExternalID)
			if err != nil {
				return rep, err
			}
		}
		if !found {
			// Sign-ups for unlicensed players carry only free text; match
			// by name or create a bare row the license register can claim
			// later.
			playerID, err = r.players.ResolveByName(ctx, raw.PlayerName, clubID)
			if err != nil {
				if errors.Is(err, ErrInvalidInput) {
					rep.skip("invalid player name")
					continue
				}
				return rep, err
			}
		}

		up, err := r.stores.Participants().Upsert(ctx, participant.Participant{
			ClassID:  classID,
			PlayerID: playerID,
			ClubID:   clubID,
			Seed:     parseSeed(raw.Seed),
		})
		if err != nil {
			return rep, errors.Wrapf(err, "upsert participant %q", raw.PlayerName)
		}
		rep.record(up)

		if raw.GroupDescription == "" {
			continue
		}
		group, err := r.stores.Participants().UpsertGroup(ctx, participant.Group{
			ClassID:     classID,
			Description: raw.GroupDescription,
			StageID:     stageByCode[raw.StageCode],
		})
		if err != nil {
			return rep, errors.Wrapf(err, "upsert group %q", raw.GroupDescription)
		}
		groupMembers[group.ID] = append(groupMembers[group.ID], up.ID)
	}

	// Membership is refreshed wholesale per group so re-resolved rows never
	// leave stale members behind.
	for groupID, members := range groupMembers {
		if err := r.stores.Participants().ReplaceGroupMembers(ctx, groupID, members); err != nil {
			return rep, errors.Wrapf(err, "replace members of group %d", groupID)
		}
	}
	return rep, nil
}

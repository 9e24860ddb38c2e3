package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/platform/logging"
)

// PortalClient fetches raw rows from the federation portal. Implementations
// leave the provenance fields zero; the service stamps run id, source and
// row ordinal after every fetch.
type PortalClient interface {
	FetchTournaments(ctx context.Context) ([]rawdata.Tournament, error)
	FetchClasses(ctx context.Context, tournamentExternalID string) ([]rawdata.Class, error)
	FetchParticipants(ctx context.Context, tournamentExternalID, classExternalID string) ([]rawdata.Participant, error)
	FetchLicenses(ctx context.Context) ([]rawdata.License, error)
	FetchRanking(ctx context.Context) ([]rawdata.RankingRow, error)
	FetchTransitions(ctx context.Context) ([]rawdata.Transition, error)
}

const defaultScrapeWorkers = 8

// ScrapeService pulls every source for one run and appends the rows to raw
// storage. The flat sources (licenses, ranking, transitions) fan out
// concurrently; the tournament tree pools its per-tournament fetches. A
// source failure is recorded and the rest still complete, so one bad export
// never voids a whole scrape.
type ScrapeService struct {
	portal  PortalClient
	rawRepo rawdata.Repository
	logger  *logging.Logger
	workers int
}

func NewScrapeService(portal PortalClient, rawRepo rawdata.Repository, logger *logging.Logger, workers int) *ScrapeService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultScrapeWorkers
	}
	return &ScrapeService{portal: portal, rawRepo: rawRepo, logger: logger, workers: workers}
}

// Scrape runs a full fetch and returns the new run id. The returned error
// combines every source failure; a non-zero run id alongside an error means
// the surviving sources were stored and can be resolved.
func (s *ScrapeService) Scrape(ctx context.Context) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.Scrape")
	defer span.End()

	started := time.Now()
	runID, err := s.rawRepo.NextRunID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "allocate scrape run")
	}

	var mu sync.Mutex
	var failures error
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = errors.CombineErrors(failures, err)
	}

	var wg conc.WaitGroup
	wg.Go(func() { s.scrapeLicenses(ctx, runID, fail) })
	wg.Go(func() { s.scrapeRanking(ctx, runID, fail) })
	wg.Go(func() { s.scrapeTransitions(ctx, runID, fail) })
	wg.Go(func() { s.scrapeTournamentTree(ctx, runID, fail) })
	wg.Wait()

	s.logger.InfoContext(ctx, "scrape run finished",
		"run_id", runID,
		"duration_ms", time.Since(started).Milliseconds(),
		"failed", failures != nil)
	return runID, failures
}

func (s *ScrapeService) scrapeLicenses(ctx context.Context, runID int64, fail func(error)) {
	rows, err := s.portal.FetchLicenses(ctx)
	if err != nil {
		fail(errors.Wrap(err, "fetch licenses"))
		return
	}
	for i := range rows {
		rows[i].Meta = record.Meta{RunID: runID, Source: record.SourceLicenses, RowNum: i}
	}
	if err := s.rawRepo.AppendLicenses(ctx, rows); err != nil {
		fail(errors.Wrap(err, "append licenses"))
		return
	}
	s.logger.DebugContext(ctx, "scraped licenses", "run_id", runID, "rows", len(rows))
}

func (s *ScrapeService) scrapeRanking(ctx context.Context, runID int64, fail func(error)) {
	rows, err := s.portal.FetchRanking(ctx)
	if err != nil {
		fail(errors.Wrap(err, "fetch ranking"))
		return
	}
	for i := range rows {
		rows[i].Meta = record.Meta{RunID: runID, Source: record.SourceRanking, RowNum: i}
	}
	if err := s.rawRepo.AppendRankingRows(ctx, rows); err != nil {
		fail(errors.Wrap(err, "append ranking rows"))
		return
	}
	s.logger.DebugContext(ctx, "scraped ranking", "run_id", runID, "rows", len(rows))
}

func (s *ScrapeService) scrapeTransitions(ctx context.Context, runID int64, fail func(error)) {
	rows, err := s.portal.FetchTransitions(ctx)
	if err != nil {
		fail(errors.Wrap(err, "fetch transitions"))
		return
	}
	for i := range rows {
		rows[i].Meta = record.Meta{RunID: runID, Source: record.SourceTournament, RowNum: i}
	}
	if err := s.rawRepo.AppendTransitions(ctx, rows); err != nil {
		fail(errors.Wrap(err, "append transitions"))
		return
	}
	s.logger.DebugContext(ctx, "scraped transitions", "run_id", runID, "rows", len(rows))
}

// scrapeTournamentTree walks tournaments, their classes and each class's
// sign-up list. The per-tournament subtree fetches run on a bounded pool;
// appends are serialized per source through the repository.
func (s *ScrapeService) scrapeTournamentTree(ctx context.Context, runID int64, fail func(error)) {
	tournaments, err := s.portal.FetchTournaments(ctx)
	if err != nil {
		fail(errors.Wrap(err, "fetch tournaments"))
		return
	}
	for i := range tournaments {
		tournaments[i].Meta = record.Meta{RunID: runID, Source: record.SourceTournament, RowNum: i}
	}
	if err := s.rawRepo.AppendTournaments(ctx, tournaments); err != nil {
		fail(errors.Wrap(err, "append tournaments"))
		return
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		fail(errors.Wrap(err, "create scrape worker pool"))
		return
	}
	defer pool.Release()

	var appendMu sync.Mutex
	var workers sync.WaitGroup
	for _, t := range tournaments {
		t := t
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			s.scrapeTournament(ctx, runID, t.ExternalID, &appendMu, fail)
		}); err != nil {
			workers.Done()
			fail(errors.Wrapf(err, "submit tournament %s to worker pool", t.ExternalID))
		}
	}
	workers.Wait()

	s.logger.DebugContext(ctx, "scraped tournament tree", "run_id", runID, "tournaments", len(tournaments))
}

func (s *ScrapeService) scrapeTournament(ctx context.Context, runID int64, externalID string, appendMu *sync.Mutex, fail func(error)) {
	classes, err := s.portal.FetchClasses(ctx, externalID)
	if err != nil {
		fail(errors.Wrapf(err, "fetch classes of tournament %s", externalID))
		return
	}
	for i := range classes {
		classes[i].Meta = record.Meta{RunID: runID, Source: record.SourceTournament, RowNum: i}
	}

	var participants []rawdata.Participant
	for _, class := range classes {
		rows, err := s.portal.FetchParticipants(ctx, externalID, class.ExternalID)
		if err != nil {
			fail(errors.Wrapf(err, "fetch participants of class %s", class.ExternalID))
			continue
		}
		participants = append(participants, rows...)
	}
	for i := range participants {
		participants[i].Meta = record.Meta{RunID: runID, Source: record.SourceTournament, RowNum: i}
	}

	appendMu.Lock()
	defer appendMu.Unlock()
	if err := s.rawRepo.AppendClasses(ctx, classes); err != nil {
		fail(errors.Wrapf(err, "append classes of tournament %s", externalID))
		return
	}
	if err := s.rawRepo.AppendParticipants(ctx, participants); err != nil {
		fail(errors.Wrapf(err, "append participants of tournament %s", externalID))
	}
}

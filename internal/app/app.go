package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mkrogh/ttsync/external/portal"
	"github.com/mkrogh/ttsync/internal/config"
	"github.com/mkrogh/ttsync/internal/infrastructure/repository/postgres"
	"github.com/mkrogh/ttsync/internal/platform/logging"
	"github.com/mkrogh/ttsync/internal/platform/resilience"
	"github.com/mkrogh/ttsync/internal/usecase"
)

// App holds the wired services behind the sync binary.
type App struct {
	DB       *sqlx.DB
	Scraper  *usecase.ScrapeService
	Pipeline *usecase.PipelineService
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	client := portal.NewClient(portal.ClientConfig{
		BaseURL: cfg.PortalBaseURL,
		Season:  cfg.PortalSeason,
		Timeout: cfg.PortalTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.BreakerConfig{
			Enabled:          cfg.PortalCircuitEnabled,
			FailureThreshold: cfg.PortalCircuitFailureCount,
			OpenTimeout:      cfg.PortalCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PortalCircuitHalfOpenMaxReq,
		},
	})

	toggles := usecase.StageToggles{
		Tournaments:   cfg.SyncTournamentsEnabled,
		Classes:       cfg.SyncClassesEnabled,
		RankingGroups: cfg.SyncRankingGroupsEnabled,
		Licenses:      cfg.SyncLicensesEnabled,
		Transitions:   cfg.SyncTransitionsEnabled,
		Participants:  cfg.SyncParticipantsEnabled,
	}

	return &App{
		DB:       db,
		Scraper:  usecase.NewScrapeService(client, postgres.NewRawDataRepository(db), logger, cfg.ScrapeWorkers),
		Pipeline: usecase.NewPipelineService(postgres.NewStore(db), toggles, logger),
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

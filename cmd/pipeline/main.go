package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrogh/ttsync/internal/app"
	"github.com/mkrogh/ttsync/internal/config"
	"github.com/mkrogh/ttsync/internal/observability"
	"github.com/mkrogh/ttsync/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	runID := flag.Int64("run-id", 0, "resolve an existing scrape run instead of scraping first")
	scrapeOnly := flag.Bool("scrape-only", false, "scrape the portal and exit without resolving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := run(ctx, cfg, logger, *runID, *scrapeOnly)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := observability.StopPprofServer(pprofSrv, logger, shutdownTimeout); err != nil {
		logger.Error("stop pprof", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := shutdownTrace(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}

	if runErr != nil {
		logger.Error("sync failed", "error", runErr)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger, runID int64, scrapeOnly bool) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close db", "error", err)
		}
	}()

	if runID == 0 {
		scraped, err := a.Scraper.Scrape(ctx)
		if err != nil {
			return fmt.Errorf("scrape run %d: %w", scraped, err)
		}
		runID = scraped
		if scrapeOnly {
			logger.InfoContext(ctx, "scrape finished", "run_id", runID)
			return nil
		}
	} else if scrapeOnly {
		return fmt.Errorf("-scrape-only cannot be combined with -run-id")
	}

	report, err := a.Pipeline.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("resolve run %d: %w", runID, err)
	}

	if failed := report.FailedStages(); len(failed) > 0 {
		return fmt.Errorf("run %d finished with failed stages: %v", runID, failed)
	}

	logger.InfoContext(ctx, "sync finished", "run_id", runID, "inserted", report.TotalInserted())

	return nil
}

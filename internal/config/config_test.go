package config

import (
	"testing"
	"time"

	"github.com/mkrogh/ttsync/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ServiceName != "ttsync" {
		t.Fatalf("unexpected service name: %s", cfg.ServiceName)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel)
	}
	if cfg.PortalTimeout != 20*time.Second {
		t.Fatalf("unexpected portal timeout: %v", cfg.PortalTimeout)
	}
	if cfg.ScrapeWorkers != 8 {
		t.Fatalf("unexpected scrape workers: %d", cfg.ScrapeWorkers)
	}
	if !cfg.SyncTournamentsEnabled || !cfg.SyncParticipantsEnabled {
		t.Fatalf("stages should default to enabled: %+v", cfg)
	}
	if cfg.UptraceEnabled || cfg.PyroscopeEnabled || cfg.PprofEnabled {
		t.Fatalf("telemetry should default to disabled: %+v", cfg)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_StageToggleParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SYNC_TRANSITIONS_ENABLED", "false")
	t.Setenv("SYNC_LICENSES_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SyncTransitionsEnabled || cfg.SyncLicensesEnabled {
		t.Fatalf("disabled stages still on: %+v", cfg)
	}
	if !cfg.SyncClassesEnabled {
		t.Fatalf("untouched stage lost its default")
	}
}

func TestLoad_ScrapeWorkersMustBePositive(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SCRAPE_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for SCRAPE_WORKERS=0")
	}
}

func TestLoad_PortalCircuitSettings(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PORTAL_CIRCUIT_ENABLED", "true")
	t.Setenv("PORTAL_CIRCUIT_FAILURE_COUNT", "9")
	t.Setenv("PORTAL_CIRCUIT_OPEN_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.PortalCircuitEnabled || cfg.PortalCircuitFailureCount != 9 || cfg.PortalCircuitOpenTimeout != 45*time.Second {
		t.Fatalf("circuit settings not applied: %+v", cfg)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_NegativeDurationRejected(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PORTAL_TIMEOUT", "-5s")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive PORTAL_TIMEOUT")
	}
}

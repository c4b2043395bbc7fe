package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LISTEN_ADDR", "GIN_MODE", "LOG_LEVEL", "STORE_DRIVER", "DATABASE_PATH",
		"DATABASE_URL", "DATABASE_NAME", "REDIS_URL", "STATS_WINDOW_SECONDS", "FIRST_SEEN_MODE",
		"CORS_ALLOWED_ORIGINS", "LIVE_STATS_INTERVAL_SECONDS", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Fatalf("expected listen addr :8000, got %q", cfg.ListenAddr)
	}
	if cfg.StoreDriver != store.DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.DatabasePath != "radioafrica.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.StatsWindow != 120*time.Second {
		t.Fatalf("expected 120s window, got %s", cfg.StatsWindow)
	}
	if cfg.FirstSeenMode != service.FirstSeenAtomic {
		t.Fatalf("expected atomic mode, got %q", cfg.FirstSeenMode)
	}
	if cfg.LiveStatsInterval != 15*time.Second {
		t.Fatalf("expected 15s live interval, got %s", cfg.LiveStatsInterval)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("expected metrics enabled by default")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("DATABASE_URL", " mongodb://localhost:27017 ")
	t.Setenv("DATABASE_NAME", "radio")
	t.Setenv("STATS_WINDOW_SECONDS", "300")
	t.Setenv("FIRST_SEEN_MODE", "lookup")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://radio.africa, http://localhost:5173 ,")
	t.Setenv("LIVE_STATS_INTERVAL_SECONDS", "0")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":9100" {
		t.Fatalf("expected :9100, got %q", cfg.ListenAddr)
	}
	opts := cfg.StoreOptions()
	if opts.Driver != store.DriverMongo || opts.MongoURL != "mongodb://localhost:27017" || opts.MongoDatabase != "radio" {
		t.Fatalf("unexpected store options %+v", opts)
	}
	if cfg.StatsWindow != 5*time.Minute {
		t.Fatalf("expected 5m window, got %s", cfg.StatsWindow)
	}
	if cfg.FirstSeenMode != service.FirstSeenLookup {
		t.Fatalf("expected lookup mode, got %q", cfg.FirstSeenMode)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.LiveStatsInterval != 0 {
		t.Fatalf("expected live stats disabled, got %s", cfg.LiveStatsInterval)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("expected metrics disabled")
	}
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		raw  envConfig
	}{
		{name: "driver", raw: envConfig{StoreDriver: "cassandra"}},
		{name: "mode", raw: envConfig{FirstSeenMode: "eventual"}},
		{name: "window text", raw: envConfig{StatsWindowSeconds: "two minutes"}},
		{name: "window zero", raw: envConfig{StatsWindowSeconds: "0"}},
		{name: "negative interval", raw: envConfig{LiveStatsIntervalSeconds: "-1"}},
		{name: "metrics flag", raw: envConfig{MetricsEnabled: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromEnv(tt.raw); err == nil {
				t.Fatalf("expected error for %+v", tt.raw)
			}
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for raw, want := range tests {
		got := AppConfig{LogLevel: raw}.GetLogLevel().Level()
		if got != want {
			t.Fatalf("log level %q: expected %s, got %s", raw, want, got)
		}
	}
}

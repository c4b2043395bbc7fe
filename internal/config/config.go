package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	golobby "github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
	"github.com/joho/godotenv"

	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

// envConfig 是环境变量的原始值，由 golobby feeder 填充。
type envConfig struct {
	Port                     string `env:"PORT"`
	ListenAddr               string `env:"LISTEN_ADDR"`
	GinMode                  string `env:"GIN_MODE"`
	LogLevel                 string `env:"LOG_LEVEL"`
	StoreDriver              string `env:"STORE_DRIVER"`
	DatabasePath             string `env:"DATABASE_PATH"`
	DatabaseURL              string `env:"DATABASE_URL"`
	DatabaseName             string `env:"DATABASE_NAME"`
	RedisURL                 string `env:"REDIS_URL"`
	StatsWindowSeconds       string `env:"STATS_WINDOW_SECONDS"`
	FirstSeenMode            string `env:"FIRST_SEEN_MODE"`
	CORSAllowedOrigins       string `env:"CORS_ALLOWED_ORIGINS"`
	LiveStatsIntervalSeconds string `env:"LIVE_STATS_INTERVAL_SECONDS"`
	MetricsEnabled           string `env:"METRICS_ENABLED"`
}

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	GinMode           string
	LogLevel          string
	StoreDriver       store.Driver
	DatabasePath      string
	DatabaseURL       string
	DatabaseName      string
	RedisURL          string
	StatsWindow       time.Duration
	FirstSeenMode     service.FirstSeenMode
	AllowedOrigins    []string
	LiveStatsInterval time.Duration
	MetricsEnabled    bool
}

// Load 读取 .env（若存在）与环境变量，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	// .env 是可选的
	_ = godotenv.Load()

	var raw envConfig
	if err := golobby.New().AddFeeder(feeder.Env{}).AddStruct(&raw).Feed(); err != nil {
		return AppConfig{}, fmt.Errorf("read environment: %w", err)
	}

	return fromEnv(raw)
}

func fromEnv(raw envConfig) (AppConfig, error) {
	port := strings.TrimSpace(raw.Port)
	if port == "" {
		port = "8000"
	}

	listenAddr := strings.TrimSpace(raw.ListenAddr)
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	ginMode := strings.TrimSpace(raw.GinMode)
	if ginMode == "" {
		ginMode = "release"
	}

	logLevel := strings.TrimSpace(raw.LogLevel)
	if logLevel == "" {
		logLevel = "info"
	}

	driver, err := store.ParseDriver(raw.StoreDriver)
	if err != nil {
		return AppConfig{}, err
	}

	databasePath := strings.TrimSpace(raw.DatabasePath)
	if databasePath == "" {
		databasePath = "radioafrica.db"
	}

	windowSeconds, err := parseSeconds("STATS_WINDOW_SECONDS", raw.StatsWindowSeconds, int64(service.DefaultStatsWindow/time.Second))
	if err != nil {
		return AppConfig{}, err
	}
	if windowSeconds == 0 {
		return AppConfig{}, fmt.Errorf("STATS_WINDOW_SECONDS must be positive")
	}

	mode, err := service.ParseFirstSeenMode(raw.FirstSeenMode)
	if err != nil {
		return AppConfig{}, err
	}

	liveSeconds, err := parseSeconds("LIVE_STATS_INTERVAL_SECONDS", raw.LiveStatsIntervalSeconds, 15)
	if err != nil {
		return AppConfig{}, err
	}

	metricsEnabled := true
	if v := strings.TrimSpace(raw.MetricsEnabled); v != "" {
		metricsEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return AppConfig{}, fmt.Errorf("METRICS_ENABLED: %w", err)
		}
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		GinMode:           ginMode,
		LogLevel:          logLevel,
		StoreDriver:       driver,
		DatabasePath:      databasePath,
		DatabaseURL:       strings.TrimSpace(raw.DatabaseURL),
		DatabaseName:      strings.TrimSpace(raw.DatabaseName),
		RedisURL:          strings.TrimSpace(raw.RedisURL),
		StatsWindow:       service.WindowFromSeconds(windowSeconds),
		FirstSeenMode:     mode,
		AllowedOrigins:    splitOrigins(raw.CORSAllowedOrigins),
		LiveStatsInterval: service.WindowFromSeconds(liveSeconds),
		MetricsEnabled:    metricsEnabled,
	}, nil
}

// StoreOptions 返回打开存储所需的参数。
func (c AppConfig) StoreOptions() store.Options {
	return store.Options{
		Driver:        c.StoreDriver,
		SQLitePath:    c.DatabasePath,
		MongoURL:      c.DatabaseURL,
		MongoDatabase: c.DatabaseName,
		RedisURL:      c.RedisURL,
	}
}

// GetLogLevel 将 LOG_LEVEL 映射为 slog 级别，未知值回退为 INFO。
func (c AppConfig) GetLogLevel() slog.Leveler {
	switch logLevel := strings.ToLower(c.LogLevel); logLevel {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	default:
		slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
		return slog.LevelInfo
	}
}

func parseSeconds(key, raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return seconds, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

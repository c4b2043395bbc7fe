package handler

import (
	"log/slog"

	"github.com/radioafrica/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	presence    presenceRecorder
	stats       statsReader
	blogs       blogProvider
	diagnostics diagnosticsProvider
	logger      *slog.Logger
}

// Services 列出 API 依赖的服务。
type Services struct {
	Presence    *service.PresenceTracker
	Stats       *service.StatsAggregator
	Blogs       *service.BlogService
	Diagnostics *service.DiagnosticsService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(services Services, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		presence:    services.Presence,
		stats:       services.Stats,
		blogs:       services.Blogs,
		diagnostics: services.Diagnostics,
		logger:      logger,
	}
}

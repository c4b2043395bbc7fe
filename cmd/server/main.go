package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/config"
	"github.com/radioafrica/internal/handler"
	"github.com/radioafrica/internal/live"
	"github.com/radioafrica/internal/metrics"
	"github.com/radioafrica/internal/router"
	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()}))
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 存储不可用时以降级状态继续运行
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logger.Error("failed to open store, running degraded",
			slog.String("driver", string(cfg.StoreDriver)),
			slog.Any("error", err))
		st = store.Unavailable(string(cfg.StoreDriver), err)
	}
	defer st.Close()

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder, err = metrics.New()
		if err != nil {
			logger.Error("failed to register metrics", slog.Any("error", err))
			os.Exit(1)
		}
	}

	presence := service.NewPresenceTracker(st, st).
		WithMode(cfg.FirstSeenMode).
		WithObserver(recorder).
		WithLogger(logger)
	stats := service.NewStatsAggregator(st, st).WithDefaultWindow(cfg.StatsWindow)

	api := handler.NewAPI(handler.Services{
		Presence: presence,
		Stats:    stats,
		Blogs:    service.NewBlogService(st),
		Diagnostics: service.NewDiagnosticsService(st, service.DiagnosticsEnv{
			Driver:          string(cfg.StoreDriver),
			DatabaseURLSet:  cfg.DatabaseURL != "",
			DatabaseNameSet: cfg.DatabaseName != "",
		}),
	}, logger)

	broadcaster := live.NewBroadcaster(stats, recorder, logger)
	if err := broadcaster.Start(cfg.LiveStatsInterval); err != nil {
		logger.Error("failed to schedule live stats", slog.Any("error", err))
	}

	opts := router.Options{Logger: logger, StatsStream: broadcaster}
	if recorder != nil {
		opts.Metrics = recorder.Handler()
	}
	engine := router.SetupRouter(api, opts)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Handler(engine, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("store", st.Name()),
			slog.String("first_seen_mode", string(presence.Mode())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// SSE 连接需要先断开，否则 Shutdown 会一直等待
	broadcaster.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

// Package live pushes periodic stats snapshots to SSE subscribers.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/r3labs/sse/v2"

	"github.com/radioafrica/internal/metrics"
	"github.com/radioafrica/internal/service"
)

// StreamID is the SSE stream carrying stats snapshots.
const StreamID = "stats"

const refreshTimeout = 10 * time.Second

// StatsSource is the read path the broadcaster polls.
type StatsSource interface {
	GetStats(ctx context.Context, window time.Duration) (service.Stats, error)
	DefaultWindow() time.Duration
}

// Broadcaster refreshes stats on a schedule, updates gauges and publishes
// each snapshot to the stats stream.
type Broadcaster struct {
	stats     StatsSource
	recorder  *metrics.Recorder
	logger    *slog.Logger
	server    *sse.Server
	scheduler *gocron.Scheduler

	mu   sync.RWMutex
	last service.Stats

	stopOnce sync.Once
}

func NewBroadcaster(stats StatsSource, recorder *metrics.Recorder, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}

	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(StreamID)

	return &Broadcaster{
		stats:    stats,
		recorder: recorder,
		logger:   logger,
		server:   server,
	}
}

// Refresh reads the current stats once and publishes them.
func (b *Broadcaster) Refresh(ctx context.Context) error {
	stats, err := b.stats.GetStats(ctx, b.stats.DefaultWindow())
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.last = stats
	b.mu.Unlock()

	b.recorder.SetStats(stats)

	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	b.server.Publish(StreamID, &sse.Event{Event: []byte(StreamID), Data: payload})
	return nil
}

// Last returns the most recently published snapshot.
func (b *Broadcaster) Last() service.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}

// Start schedules Refresh every interval. A non-positive interval leaves the
// broadcaster idle; the stream endpoint still accepts subscribers.
func (b *Broadcaster) Start(interval time.Duration) error {
	if interval <= 0 {
		b.logger.Info("live stats disabled")
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(interval).Do(b.tick); err != nil {
		return err
	}

	s.StartAsync()
	b.scheduler = s
	b.logger.Info("live stats scheduled", slog.Duration("interval", interval))
	return nil
}

func (b *Broadcaster) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := b.Refresh(ctx); err != nil {
		b.logger.Warn("refresh live stats failed", slog.Any("error", err))
	}
}

// Stop halts the scheduler and disconnects subscribers.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		if b.scheduler != nil {
			b.scheduler.Stop()
		}
		b.server.Close()
	})
}

// ServeHTTP subscribes the client to the stats stream.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("stream", StreamID)
	r.URL.RawQuery = q.Encode()
	b.server.ServeHTTP(w, r)
}

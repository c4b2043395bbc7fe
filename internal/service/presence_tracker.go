package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/radioafrica/internal/store"
)

// FirstSeenMode 决定如何判断访客是否为首次出现。
type FirstSeenMode string

const (
	// FirstSeenAtomic 依赖存储层的插入结果判断首次出现，并发下只计数一次。
	FirstSeenAtomic FirstSeenMode = "atomic"
	// FirstSeenLookup 先查询再写入。同一访客的并发首次心跳可能被重复计数。
	FirstSeenLookup FirstSeenMode = "lookup"
)

// ParseFirstSeenMode 解析配置中的模式名称，空值返回 FirstSeenAtomic。
func ParseFirstSeenMode(raw string) (FirstSeenMode, error) {
	switch mode := FirstSeenMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return FirstSeenAtomic, nil
	case FirstSeenAtomic, FirstSeenLookup:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown first-seen mode %q", raw)
	}
}

// Heartbeat outcomes reported to a PresenceObserver.
const (
	HeartbeatOK      = "ok"
	HeartbeatInvalid = "invalid"
	HeartbeatError   = "error"
)

// PresenceObserver receives heartbeat outcomes, typically for metrics.
type PresenceObserver interface {
	ObserveHeartbeat(result string)
	ObserveFirstSeen()
}

type noopObserver struct{}

func (noopObserver) ObserveHeartbeat(string) {}
func (noopObserver) ObserveFirstSeen()       {}

// PresenceTracker 记录访客心跳，并对首次出现的访客累加全站计数。
type PresenceTracker struct {
	sessions store.SessionStore
	counters store.CounterStore
	now      func() time.Time
	mode     FirstSeenMode
	observer PresenceObserver
	logger   *slog.Logger
}

// NewPresenceTracker 创建 PresenceTracker，默认使用原子判定与系统时钟。
func NewPresenceTracker(sessions store.SessionStore, counters store.CounterStore) *PresenceTracker {
	return &PresenceTracker{
		sessions: sessions,
		counters: counters,
		now:      time.Now,
		mode:     FirstSeenAtomic,
		observer: noopObserver{},
		logger:   slog.Default(),
	}
}

// WithClock 允许在测试中注入时钟。
func (t *PresenceTracker) WithClock(now func() time.Time) *PresenceTracker {
	if now == nil {
		return t
	}
	t.now = now
	return t
}

// WithMode 切换首次出现的判定方式。
func (t *PresenceTracker) WithMode(mode FirstSeenMode) *PresenceTracker {
	if mode == "" {
		return t
	}
	t.mode = mode
	return t
}

func (t *PresenceTracker) WithObserver(observer PresenceObserver) *PresenceTracker {
	if observer == nil {
		return t
	}
	t.observer = observer
	return t
}

func (t *PresenceTracker) WithLogger(logger *slog.Logger) *PresenceTracker {
	if logger == nil {
		return t
	}
	t.logger = logger
	return t
}

// Mode 返回当前的首次出现判定方式。
func (t *PresenceTracker) Mode() FirstSeenMode {
	return t.mode
}

// RecordHeartbeat 刷新访客的 last_seen；访客首次出现时，全站 total_views 加一。
// visitorID 仅用于判空时去除空白，存储时保持原样。
func (t *PresenceTracker) RecordHeartbeat(ctx context.Context, visitorID string) error {
	if strings.TrimSpace(visitorID) == "" {
		t.observer.ObserveHeartbeat(HeartbeatInvalid)
		return fmt.Errorf("%w: visitor_id is required", ErrInvalidInput)
	}

	now := t.now().UTC()

	var (
		firstSeen bool
		err       error
	)
	if t.mode == FirstSeenLookup {
		firstSeen, err = t.recordWithLookup(ctx, visitorID, now)
	} else {
		firstSeen, err = t.sessions.UpsertSession(ctx, visitorID, now)
	}
	if err != nil {
		t.observer.ObserveHeartbeat(HeartbeatError)
		return storeError("upsert session", err)
	}

	if firstSeen {
		if err := t.counters.IncrementCounter(ctx, store.GlobalCounterKey, now); err != nil {
			t.observer.ObserveHeartbeat(HeartbeatError)
			return storeError("increment total views", err)
		}
		t.observer.ObserveFirstSeen()
		t.logger.Debug("first heartbeat from visitor", slog.String("visitor_id", visitorID))
	}

	t.observer.ObserveHeartbeat(HeartbeatOK)
	return nil
}

// recordWithLookup 先读后写：读取与写入之间没有原子性保证。
func (t *PresenceTracker) recordWithLookup(ctx context.Context, visitorID string, now time.Time) (bool, error) {
	_, err := t.sessions.FindSession(ctx, visitorID)
	existed := true
	switch {
	case errors.Is(err, store.ErrNotFound):
		existed = false
	case err != nil:
		return false, err
	}

	if _, err := t.sessions.UpsertSession(ctx, visitorID, now); err != nil {
		return false, err
	}
	return !existed, nil
}

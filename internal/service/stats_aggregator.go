package service

import (
	"context"
	"math"
	"time"

	"github.com/radioafrica/internal/store"
)

// DefaultStatsWindow 是判定访客“在线”的默认时间窗口。
const DefaultStatsWindow = 120 * time.Second

// maxWindowSeconds 防止秒数换算为 time.Duration 时溢出。
const maxWindowSeconds = int64(math.MaxInt64 / int64(time.Second))

// Stats 是对外暴露的在线与累计访客数。
type Stats struct {
	Active int64 `json:"active"`
	Total  int64 `json:"total"`
}

// StatsAggregator 只读地汇总在线访客数与全站累计访客数。
type StatsAggregator struct {
	sessions      store.SessionStore
	counters      store.CounterStore
	now           func() time.Time
	defaultWindow time.Duration
}

// NewStatsAggregator 创建 StatsAggregator，默认窗口为 120 秒。
func NewStatsAggregator(sessions store.SessionStore, counters store.CounterStore) *StatsAggregator {
	return &StatsAggregator{
		sessions:      sessions,
		counters:      counters,
		now:           time.Now,
		defaultWindow: DefaultStatsWindow,
	}
}

// WithClock 允许在测试中注入时钟。
func (a *StatsAggregator) WithClock(now func() time.Time) *StatsAggregator {
	if now == nil {
		return a
	}
	a.now = now
	return a
}

// WithDefaultWindow 调整未指定窗口时使用的默认值。
func (a *StatsAggregator) WithDefaultWindow(window time.Duration) *StatsAggregator {
	if window <= 0 {
		return a
	}
	a.defaultWindow = window
	return a
}

// DefaultWindow 返回当前的默认窗口。
func (a *StatsAggregator) DefaultWindow() time.Duration {
	return a.defaultWindow
}

// GetStats 统计 last_seen >= now-window 的会话数，并读取全站计数。
// 计数文档尚不存在时 total 为 0；负窗口按 0 处理。
func (a *StatsAggregator) GetStats(ctx context.Context, window time.Duration) (Stats, error) {
	if window < 0 {
		window = 0
	}
	since := a.now().UTC().Add(-window)

	active, err := a.sessions.CountActiveSince(ctx, since)
	if err != nil {
		return Stats{}, storeError("count active sessions", err)
	}

	total, err := a.counters.CounterValue(ctx, store.GlobalCounterKey)
	if err != nil {
		return Stats{}, storeError("read total views", err)
	}

	return Stats{Active: active, Total: total}, nil
}

// WindowFromSeconds 将秒数换算为窗口，超出 time.Duration 范围时取上限。
func WindowFromSeconds(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	if seconds > maxWindowSeconds {
		seconds = maxWindowSeconds
	}
	return time.Duration(seconds) * time.Second
}

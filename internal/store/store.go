// Package store is the persistence boundary for sessions, site counters and
// blog posts. Every backend offers single-document atomic primitives only:
// callers must not assume multi-document transactions.
package store

import (
	"context"
	"errors"
	"time"
)

// GlobalCounterKey identifies the site-wide counter document.
const GlobalCounterKey = "global"

// Logical collection names, shared by all backends.
const (
	CollectionSessions  = "session"
	CollectionSiteStats = "sitestat"
	CollectionPosts     = "blogpost"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("store: record not found")
	// ErrInvalidID is returned when an id cannot be parsed by the backend.
	ErrInvalidID = errors.New("store: invalid id")
	// ErrUnavailable is returned by a store that could not be opened.
	ErrUnavailable = errors.New("store: unavailable")
)

// Session is one visitor's liveness record.
type Session struct {
	VisitorID string
	LastSeen  time.Time
	CreatedAt time.Time
}

// Post is a stored blog post. ID is backend specific and opaque to callers.
type Post struct {
	ID          string
	Title       string
	Content     string
	Author      string
	Tags        []string
	CoverImage  *string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionStore persists visitor sessions.
type SessionStore interface {
	// UpsertSession sets last_seen to now, and created_at to now when the
	// record is inserted. created reports whether this call inserted it;
	// concurrent calls for the same visitor see created == true at most once.
	UpsertSession(ctx context.Context, visitorID string, now time.Time) (created bool, err error)
	FindSession(ctx context.Context, visitorID string) (*Session, error)
	// CountActiveSince counts sessions with last_seen >= since.
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

// CounterStore persists named monotonic counters.
type CounterStore interface {
	// IncrementCounter atomically adds one to key, creating it with value 1.
	IncrementCounter(ctx context.Context, key string, now time.Time) error
	// CounterValue returns 0 when the counter does not exist.
	CounterValue(ctx context.Context, key string) (int64, error)
}

// PostStore persists blog posts.
type PostStore interface {
	CreatePost(ctx context.Context, post *Post) error
	// ListPosts returns up to limit posts, newest published_at first.
	ListPosts(ctx context.Context, limit int) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
}

// Store is the full backend contract.
type Store interface {
	SessionStore
	CounterStore
	PostStore

	Ping(ctx context.Context) error
	// Collections lists the logical collections that currently hold data.
	Collections(ctx context.Context) ([]string, error)
	Name() string
	Close() error
}

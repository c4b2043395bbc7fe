package store

import (
	"context"
	"fmt"
	"time"
)

// unavailableStore stands in for a backend that failed to open so the
// service keeps running in a degraded state.
type unavailableStore struct {
	name   string
	reason error
}

// Unavailable returns a Store whose every call fails with ErrUnavailable.
func Unavailable(name string, reason error) Store {
	return &unavailableStore{name: name, reason: reason}
}

func (u *unavailableStore) err() error {
	if u.reason == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.reason)
}

func (u *unavailableStore) UpsertSession(context.Context, string, time.Time) (bool, error) {
	return false, u.err()
}

func (u *unavailableStore) FindSession(context.Context, string) (*Session, error) {
	return nil, u.err()
}

func (u *unavailableStore) CountActiveSince(context.Context, time.Time) (int64, error) {
	return 0, u.err()
}

func (u *unavailableStore) IncrementCounter(context.Context, string, time.Time) error {
	return u.err()
}

func (u *unavailableStore) CounterValue(context.Context, string) (int64, error) {
	return 0, u.err()
}

func (u *unavailableStore) CreatePost(context.Context, *Post) error {
	return u.err()
}

func (u *unavailableStore) ListPosts(context.Context, int) ([]Post, error) {
	return nil, u.err()
}

func (u *unavailableStore) GetPost(context.Context, string) (*Post, error) {
	return nil, u.err()
}

func (u *unavailableStore) Ping(context.Context) error {
	return u.err()
}

func (u *unavailableStore) Collections(context.Context) ([]string, error) {
	return nil, u.err()
}

func (u *unavailableStore) Name() string {
	return u.name
}

func (u *unavailableStore) Close() error {
	return nil
}

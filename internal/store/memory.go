package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

type counterRecord struct {
	value     int64
	createdAt time.Time
}

// MemoryStore keeps everything in process. It is used by tests and by the
// "memory" driver for local development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	counters map[string]counterRecord
	posts    []Post
	nextID   int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		counters: make(map[string]counterRecord),
	}
}

func (ms *MemoryStore) UpsertSession(_ context.Context, visitorID string, now time.Time) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	session, exists := ms.sessions[visitorID]
	if !exists {
		ms.sessions[visitorID] = Session{VisitorID: visitorID, LastSeen: now, CreatedAt: now}
		return true, nil
	}
	session.LastSeen = now
	ms.sessions[visitorID] = session
	return false, nil
}

func (ms *MemoryStore) FindSession(_ context.Context, visitorID string) (*Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	session, exists := ms.sessions[visitorID]
	if !exists {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (ms *MemoryStore) CountActiveSince(_ context.Context, since time.Time) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var count int64
	for _, session := range ms.sessions {
		if !session.LastSeen.Before(since) {
			count++
		}
	}
	return count, nil
}

func (ms *MemoryStore) IncrementCounter(_ context.Context, key string, now time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, exists := ms.counters[key]
	if !exists {
		record.createdAt = now
	}
	record.value++
	ms.counters[key] = record
	return nil
}

func (ms *MemoryStore) CounterValue(_ context.Context, key string) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.counters[key].value, nil
}

func (ms *MemoryStore) CreatePost(_ context.Context, post *Post) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.nextID++
	post.ID = strconv.Itoa(ms.nextID)
	ms.posts = append(ms.posts, clonePost(*post))
	return nil
}

func (ms *MemoryStore) ListPosts(_ context.Context, limit int) ([]Post, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	// reversed so the stable sort lets later inserts win ties
	posts := make([]Post, 0, len(ms.posts))
	for i := len(ms.posts) - 1; i >= 0; i-- {
		posts = append(posts, clonePost(ms.posts[i]))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (ms *MemoryStore) GetPost(_ context.Context, id string) (*Post, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, ErrInvalidID
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, post := range ms.posts {
		if post.ID == id {
			found := clonePost(post)
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (ms *MemoryStore) Ping(context.Context) error {
	return nil
}

func (ms *MemoryStore) Collections(context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var names []string
	if len(ms.posts) > 0 {
		names = append(names, CollectionPosts)
	}
	if len(ms.sessions) > 0 {
		names = append(names, CollectionSessions)
	}
	if len(ms.counters) > 0 {
		names = append(names, CollectionSiteStats)
	}
	return names, nil
}

func (ms *MemoryStore) Name() string {
	return "memory"
}

func (ms *MemoryStore) Close() error {
	return nil
}

func clonePost(post Post) Post {
	if post.Tags != nil {
		post.Tags = append([]string(nil), post.Tags...)
	}
	if post.CoverImage != nil {
		cover := *post.CoverImage
		post.CoverImage = &cover
	}
	return post
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix   = "session:"
	redisSessionsByLast  = "sessions:last_seen"
	redisCounterPrefix   = "sitestat:"
	redisPostSequence    = "blogposts:seq"
	redisPostPrefix      = "blogpost:"
	redisPostsByPublish  = "blogposts:published"
	redisTimestampLayout = time.RFC3339Nano
)

type redisPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	CoverImage  *string   `json:"cover_image,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RedisStore implements Store on Redis. Sessions live in one hash per
// visitor plus a sorted set scored by last_seen in milliseconds, which is
// the resolution of the active window on this backend.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore parses a redis:// URL, connects and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis store requires REDIS_URL")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(rdb), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) UpsertSession(ctx context.Context, visitorID string, now time.Time) (bool, error) {
	key := redisSessionPrefix + visitorID
	stamp := now.UTC().Format(redisTimestampLayout)

	var inserted *redis.BoolCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		inserted = pipe.HSetNX(ctx, key, "created_at", stamp)
		pipe.HSet(ctx, key, "visitor_id", visitorID, "last_seen", stamp)
		pipe.ZAdd(ctx, redisSessionsByLast, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: visitorID,
		})
		return nil
	})
	if err != nil {
		return false, err
	}

	return inserted.Val(), nil
}

func (s *RedisStore) FindSession(ctx context.Context, visitorID string) (*Session, error) {
	fields, err := s.rdb.HGetAll(ctx, redisSessionPrefix+visitorID).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	lastSeen, err := time.Parse(redisTimestampLayout, fields["last_seen"])
	if err != nil {
		return nil, fmt.Errorf("parse last_seen: %w", err)
	}
	createdAt, err := time.Parse(redisTimestampLayout, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &Session{
		VisitorID: fields["visitor_id"],
		LastSeen:  lastSeen.UTC(),
		CreatedAt: createdAt.UTC(),
	}, nil
}

func (s *RedisStore) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	from := strconv.FormatInt(since.UnixMilli(), 10)
	return s.rdb.ZCount(ctx, redisSessionsByLast, from, "+inf").Result()
}

func (s *RedisStore) IncrementCounter(ctx context.Context, key string, now time.Time) error {
	hash := redisCounterPrefix + key
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, hash, "total_views", 1)
		pipe.HSetNX(ctx, hash, "key", key)
		pipe.HSetNX(ctx, hash, "created_at", now.UTC().Format(redisTimestampLayout))
		return nil
	})
	return err
}

func (s *RedisStore) CounterValue(ctx context.Context, key string) (int64, error) {
	value, err := s.rdb.HGet(ctx, redisCounterPrefix+key, "total_views").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return value, err
}

func (s *RedisStore) CreatePost(ctx context.Context, post *Post) error {
	seq, err := s.rdb.Incr(ctx, redisPostSequence).Result()
	if err != nil {
		return err
	}
	id := strconv.FormatInt(seq, 10)

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	payload, err := json.Marshal(redisPost{
		ID:          id,
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Tags:        tags,
		CoverImage:  post.CoverImage,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	})
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisPostPrefix+id, payload, 0)
		pipe.ZAdd(ctx, redisPostsByPublish, redis.Z{
			Score:  float64(post.PublishedAt.UnixMilli()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return err
	}

	post.ID = id
	return nil
}

func (s *RedisStore) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.rdb.ZRevRange(ctx, redisPostsByPublish, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Post{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisPostPrefix + id
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		post, err := decodeRedisPost(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *RedisStore) GetPost(ctx context.Context, id string) (*Post, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, ErrInvalidID
	}

	raw, err := s.rdb.Get(ctx, redisPostPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	post, err := decodeRedisPost(raw)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Collections(ctx context.Context) ([]string, error) {
	probes := []struct {
		name string
		key  string
	}{
		{CollectionPosts, redisPostsByPublish},
		{CollectionSessions, redisSessionsByLast},
		{CollectionSiteStats, redisCounterPrefix + GlobalCounterKey},
	}

	var names []string
	for _, probe := range probes {
		n, err := s.rdb.Exists(ctx, probe.key).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			names = append(names, probe.name)
		}
	}
	return names, nil
}

func (s *RedisStore) Name() string {
	return fmt.Sprintf("redis/%d", s.rdb.Options().DB)
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func decodeRedisPost(raw string) (Post, error) {
	var doc redisPost
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Post{}, fmt.Errorf("decode blog post: %w", err)
	}
	return Post{
		ID:          doc.ID,
		Title:       doc.Title,
		Content:     doc.Content,
		Author:      doc.Author,
		Tags:        doc.Tags,
		CoverImage:  doc.CoverImage,
		PublishedAt: doc.PublishedAt.UTC(),
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}, nil
}

package store

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/radioafrica/internal/db"
)

// SQLiteStore implements Store on top of gorm and SQLite.
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	gdb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: gdb, path: path}, nil
}

// DB exposes the underlying gorm handle.
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

func (s *SQLiteStore) UpsertSession(ctx context.Context, visitorID string, now time.Time) (bool, error) {
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := db.Session{
			VisitorID: visitorID,
			LastSeen:  now,
			CreatedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&session)
		if insert.Error != nil {
			return insert.Error
		}

		created = insert.RowsAffected == 1
		if created {
			return nil
		}

		return tx.Model(&db.Session{}).
			Where("visitor_id = ?", visitorID).
			Update("last_seen", now).Error
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

func (s *SQLiteStore) FindSession(ctx context.Context, visitorID string) (*Session, error) {
	var row db.Session
	if err := s.db.WithContext(ctx).Where("visitor_id = ?", visitorID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Session{
		VisitorID: row.VisitorID,
		LastSeen:  row.LastSeen.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

func (s *SQLiteStore) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Session{}).
		Where("last_seen >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStore) IncrementCounter(ctx context.Context, key string, now time.Time) error {
	stat := db.SiteStat{Key: key, TotalViews: 1, CreatedAt: now, UpdatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_views": gorm.Expr("total_views + 1"),
			"updated_at":  now,
		}),
	}).Create(&stat).Error
}

func (s *SQLiteStore) CounterValue(ctx context.Context, key string) (int64, error) {
	var stat db.SiteStat
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&stat).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return stat.TotalViews, nil
}

func (s *SQLiteStore) CreatePost(ctx context.Context, post *Post) error {
	row := db.BlogPost{
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Tags:        post.Tags,
		CoverImage:  post.CoverImage,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	post.ID = strconv.FormatUint(uint64(row.ID), 10)
	return nil
}

func (s *SQLiteStore) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	var rows []db.BlogPost
	query := s.db.WithContext(ctx).Order("published_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, postFromRow(row))
	}
	return posts, nil
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*Post, error) {
	parsed, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, ErrInvalidID
	}

	var row db.BlogPost
	if err := s.db.WithContext(ctx).First(&row, uint(parsed)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	post := postFromRow(row)
	return &post, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Collections(ctx context.Context) ([]string, error) {
	tables, err := s.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue
		}
		names = append(names, table)
	}
	sort.Strings(names)
	return names, nil
}

func (s *SQLiteStore) Name() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func postFromRow(row db.BlogPost) Post {
	return Post{
		ID:          strconv.FormatUint(uint64(row.ID), 10),
		Title:       row.Title,
		Content:     row.Content,
		Author:      row.Author,
		Tags:        row.Tags,
		CoverImage:  row.CoverImage,
		PublishedAt: row.PublishedAt.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

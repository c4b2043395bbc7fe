package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/radioafrica/internal/store"
)

var (
	ErrPostNotFound  = errors.New("blog post not found")
	ErrInvalidPostID = errors.New("invalid blog post id")
)

const (
	DefaultBlogListLimit = 20
	MaxBlogListLimit     = 100
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// BlogInput 描述创建文章时接受的字段。
type BlogInput struct {
	Title       string
	Content     string
	Author      string
	Tags        []string
	CoverImage  *string
	PublishedAt *time.Time
}

// BlogPost 是带有渲染后 HTML 的文章。
type BlogPost struct {
	store.Post
	ContentHTML string
}

// BlogService wraps blog post storage and markdown rendering.
type BlogService struct {
	posts store.PostStore
	now   func() time.Time
}

func NewBlogService(posts store.PostStore) *BlogService {
	return &BlogService{posts: posts, now: time.Now}
}

// WithClock 允许在测试中注入时钟。
func (s *BlogService) WithClock(now func() time.Time) *BlogService {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

// ClampLimit 将列表数量限制在 [1, MaxBlogListLimit]，未指定时取默认值。
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultBlogListLimit
	case limit > MaxBlogListLimit:
		return MaxBlogListLimit
	default:
		return limit
	}
}

// List 按发布时间倒序返回文章。
func (s *BlogService) List(ctx context.Context, limit int) ([]BlogPost, error) {
	posts, err := s.posts.ListPosts(ctx, ClampLimit(limit))
	if err != nil {
		return nil, storeError("list blog posts", err)
	}

	result := make([]BlogPost, 0, len(posts))
	for _, post := range posts {
		rendered, err := render(post)
		if err != nil {
			return nil, err
		}
		result = append(result, rendered)
	}
	return result, nil
}

// Create 校验并保存文章，未指定发布时间时使用当前时间。
func (s *BlogService) Create(ctx context.Context, input BlogInput) (*BlogPost, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	publishedAt := now
	if input.PublishedAt != nil && !input.PublishedAt.IsZero() {
		publishedAt = input.PublishedAt.UTC()
	}

	post := store.Post{
		Title:       title,
		Content:     input.Content,
		Author:      author,
		Tags:        normalizeTags(input.Tags),
		CoverImage:  normalizeCover(input.CoverImage),
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.posts.CreatePost(ctx, &post); err != nil {
		return nil, storeError("create blog post", err)
	}

	rendered, err := render(post)
	if err != nil {
		return nil, err
	}
	return &rendered, nil
}

// Get 根据 ID 获取文章。
func (s *BlogService) Get(ctx context.Context, id string) (*BlogPost, error) {
	post, err := s.posts.GetPost(ctx, strings.TrimSpace(id))
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return nil, ErrInvalidPostID
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrPostNotFound
	case err != nil:
		return nil, storeError("get blog post", err)
	}

	rendered, err := render(*post)
	if err != nil {
		return nil, err
	}
	return &rendered, nil
}

func render(post store.Post) (BlogPost, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(post.Content), &buf); err != nil {
		return BlogPost{}, fmt.Errorf("render blog post %s: %w", post.ID, err)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return BlogPost{Post: post, ContentHTML: string(sanitizer.SanitizeBytes(buf.Bytes()))}, nil
}

func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		result = append(result, tag)
	}
	return result
}

func normalizeCover(cover *string) *string {
	if cover == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*cover)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

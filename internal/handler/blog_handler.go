package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/service"
)

type blogCreateRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags"`
	CoverImage  *string    `json:"cover_image"`
	PublishedAt *time.Time `json:"published_at"`
}

type blogResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ContentHTML string   `json:"content_html"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	CoverImage  *string  `json:"cover_image"`
	PublishedAt string   `json:"published_at"`
}

func blogPayload(post service.BlogPost) blogResponse {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return blogResponse{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		ContentHTML: post.ContentHTML,
		Author:      post.Author,
		Tags:        tags,
		CoverImage:  post.CoverImage,
		PublishedAt: post.PublishedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ListBlogs 按发布时间倒序返回文章列表。
func (a *API) ListBlogs(c *gin.Context) {
	limit, _, err := parseNonNegativeQuery(c, "limit")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	posts, err := a.blogs.List(c.Request.Context(), int(min(limit, int64(service.MaxBlogListLimit))))
	if err != nil {
		a.respondServiceError(c, err, "failed to list blog posts")
		return
	}

	payload := make([]blogResponse, 0, len(posts))
	for _, post := range posts {
		payload = append(payload, blogPayload(post))
	}
	c.JSON(http.StatusOK, payload)
}

// CreateBlog 创建文章。
func (a *API) CreateBlog(c *gin.Context) {
	var req blogCreateRequest
	if !bindJSON(c, &req, "invalid blog post payload") {
		return
	}

	post, err := a.blogs.Create(c.Request.Context(), service.BlogInput{
		Title:       req.Title,
		Content:     req.Content,
		Author:      req.Author,
		Tags:        req.Tags,
		CoverImage:  req.CoverImage,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to create blog post")
		return
	}

	c.JSON(http.StatusOK, blogPayload(*post))
}

// GetBlog 返回单篇文章。
func (a *API) GetBlog(c *gin.Context) {
	post, err := a.blogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load blog post")
		return
	}

	c.JSON(http.StatusOK, blogPayload(*post))
}

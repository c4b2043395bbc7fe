package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/radioafrica/internal/handler"
)

// Options 描述可选挂载的路由。
type Options struct {
	Logger *slog.Logger
	// Metrics 非空时挂载到 /metrics
	Metrics http.Handler
	// StatsStream 非空时挂载到 /api/stats/stream
	StatsStream http.Handler
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestID(), handler.RequestLogger(opts.Logger))

	r.GET("/", api.Root)
	r.GET("/test", api.Diagnostics)
	r.GET("/healthz", api.HealthCheck)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/hello", api.Hello)

		apiGroup.POST("/heartbeat", api.RecordHeartbeat)
		apiGroup.GET("/stats", api.GetStats)
		if opts.StatsStream != nil {
			apiGroup.GET("/stats/stream", gin.WrapH(opts.StatsStream))
		}

		apiGroup.GET("/blogs", api.ListBlogs)
		apiGroup.POST("/blogs", api.CreateBlog)
		apiGroup.GET("/blogs/:id", api.GetBlog)
	}

	return r
}

// Handler 为引擎加上 CORS，origins 为空时允许任意来源。
func Handler(engine http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(engine)
}

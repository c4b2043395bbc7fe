package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root 确认服务正在运行。
func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Radio Africa API running"})
}

func (a *API) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from the backend API!"})
}

// Diagnostics 报告存储连接状态，存储不可用时仍返回 200。
func (a *API) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, a.diagnostics.Report(c.Request.Context()))
}

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	if err := a.diagnostics.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

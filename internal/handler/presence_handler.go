package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/service"
)

type heartbeatRequest struct {
	VisitorID string `json:"visitor_id"`
}

// RecordHeartbeat 接收访客心跳。
func (a *API) RecordHeartbeat(c *gin.Context) {
	var payload heartbeatRequest
	if !bindJSON(c, &payload, "visitor_id is required") {
		return
	}

	if err := a.presence.RecordHeartbeat(c.Request.Context(), payload.VisitorID); err != nil {
		a.respondServiceError(c, err, "failed to record heartbeat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetStats 返回在线访客数与累计访客数，window_seconds 缺省时使用默认窗口。
func (a *API) GetStats(c *gin.Context) {
	window := a.stats.DefaultWindow()

	seconds, present, err := parseNonNegativeQuery(c, "window_seconds")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if present {
		window = service.WindowFromSeconds(seconds)
	}

	stats, err := a.stats.GetStats(c.Request.Context(), window)
	if err != nil {
		a.respondServiceError(c, err, "failed to load stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

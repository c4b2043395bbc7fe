package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError 将服务层错误映射为 HTTP 状态码。
func (a *API) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidPostID):
		respondError(c, http.StatusBadRequest, "Invalid blog id")
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "Not found")
	default:
		a.logger.Error(message, slog.Any("error", err), slog.String("path", c.FullPath()))
		respondError(c, http.StatusInternalServerError, message)
	}
}

// parseNonNegativeQuery 读取非负整数查询参数，缺省时 present 为 false。
func parseNonNegativeQuery(c *gin.Context, key string) (value int64, present bool, err error) {
	raw, exists := c.GetQuery(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0, true, errors.New(key + " must be a non-negative integer")
	}
	return value, true, nil
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"Uni_Community/internal/middleware"
	"Uni_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// currentUserID 从中间件注入的上下文里取 user_id
func currentUserID(c *gin.Context) uint64 {
	v, _ := c.Get(middleware.ContextUserIDKey)
	id, _ := v.(uint64)
	return id
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeServiceError 业务错误统一映射到 HTTP 状态码
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"msg": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
	}
}

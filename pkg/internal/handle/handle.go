// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/middleware"
	"github.com/yeisme/blobvault/pkg/rule"
)

// currentUser 提取已认证的用户标识：认证中间件注入优先 -> query 参数兜底（便于本地调试）.
func currentUser(c *gin.Context) (string, error) {
	user := middleware.GetUserID(c)
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = strings.TrimSpace(c.Query("user"))
	}

	if err := rule.ValidateVar(user, "required,max=64"); err != nil {
		return "", err
	}

	return user, nil
}

// respondServiceError 把 service 层的错误翻译成 HTTP 状态码.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsQuotaExceeded(err):
		var qe *service.QuotaExceededError

		errors.As(err, &qe)
		// 配额不足归类为资源耗尽而不是请求格式错误
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":           "storage quota exceeded",
			"used_bytes":      qe.UsedBytes,
			"limit_bytes":     qe.LimitBytes,
			"requested_bytes": qe.RequestedBytes,
		})
	default:
		log.Logger().Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/configs"
)

// userIDKey request context 中的用户标识键.
type userIDKey struct{}

// UserIDContextKey gin.Context 中的用户标识键.
const UserIDContextKey = "user_id"

// AuthMiddleware 校验上游网关注入的用户标识请求头（默认 UserId）。
//   - 非空、长度受限、只允许字母数字与 - _ . @，防止把用户输入原样拼进对象键或日志
//   - 健康检查与指标路径可配置跳过
//   - 通过校验后写入 gin.Context 和 request.Context，下游 handler 用 GetUserID 读取.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	header := conf.Header
	if header == "" {
		header = configs.DefaultAuthHeader
	}

	maxLen := conf.MaxUserIDLength
	if maxLen <= 0 {
		maxLen = configs.DefaultMaxUserIDLength
	}

	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" || len(userID) > maxLen || !isValidUserID(userID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(UserIDContextKey, userID)

		ctx := context.WithValue(c.Request.Context(), userIDKey{}, userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID 从 gin.Context 获取认证后的用户标识，未认证返回空串.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDContextKey); ok {
		if id, ok2 := v.(string); ok2 {
			return id
		}
	}

	if v := c.Request.Context().Value(userIDKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}

	return ""
}

// isValidUserID 只放行字母、数字与 - _ . @.
func isValidUserID(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '@':
		default:
			return false
		}
	}

	return true
}

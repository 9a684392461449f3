package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/blobvault/pkg/configs"
	kvc "github.com/yeisme/blobvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/blobvault/pkg/log"
)

// RateLimitMiddleware 返回一个基于配置的限流中间件。
// key=global 时用进程内令牌桶；key=user/ip 时用 KV 计数器做固定窗口，
// 多副本部署下把 KV 切到 redis 即可共享同一份窗口计数.
func RateLimitMiddleware(cfg configs.RateLimitConfig, kvClient *kvc.Client) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				tooManyRequests(c, 1)
				return
			}

			c.Next()
		}
	}

	if kvClient == nil {
		nlog.Logger().Warn().Msg("rate limit configured per key but kv client missing, limiter disabled")
		return func(c *gin.Context) { c.Next() }
	}

	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		var key string

		switch keyMode {
		case "user":
			key = GetUserID(c)
			if key == "" { // 未认证路径退回到 IP 维度
				key = clientIP(c)
			}
		default:
			key = clientIP(c)
		}

		if key == "" {
			key = "unknown"
		}

		counterKey := fmt.Sprintf("ratelimit:%s:%s", keyMode, key)

		n, err := kvClient.Incr(c.Request.Context(), counterKey, window)
		if err != nil {
			// 限流器故障不拦业务请求
			nlog.Logger().Warn().Err(err).Str("key", counterKey).Msg("rate limit counter failed, allowing request")
			c.Next()

			return
		}

		if n > int64(cfg.Requests) {
			tooManyRequests(c, cfg.WindowSeconds)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, retryAfterSeconds int) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		gin.H{"error": "rate limit exceeded, request too frequent, please try again later"})
}

package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/blobvault/pkg/cache"
)

const (
	// cacheMaxBodyBytes 超过该大小的响应不进缓存（下载流走不到这里，兜底防误配）.
	cacheMaxBodyBytes = 1 << 20
	// cacheBypassHeader 请求带该头（任意值）则跳过缓存.
	cacheBypassHeader = "X-Cache-Bypass"
	// DefaultCacheTTL 列表/统计类响应的默认缓存时长.
	DefaultCacheTTL = 10 * time.Second
)

// cachedResponse 序列化存储结构.
type cachedResponse struct {
	Status int               `json:"s"`
	Header map[string]string `json:"h,omitempty"`
	Body   []byte            `json:"b,omitempty"`
	ETag   string            `json:"e,omitempty"`
}

// CacheMiddleware 缓存 GET 响应，键按用户隔离。
// 只缓存 200，支持 If-None-Match 304，X-Cache 标记命中与否，
// 缓存层任何失败都降级为直接执行 handler.
func CacheMiddleware(c *appcache.Cache, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return func(gc *gin.Context) {
		if gc.Request.Method != http.MethodGet || gc.GetHeader(cacheBypassHeader) != "" {
			gc.Next()
			return
		}

		key := cacheKey(gc)

		if entry, err := appcache.Get[cachedResponse](gc.Request.Context(), c, key); err == nil {
			serveCached(gc, &entry)
			return
		}

		bw := &bodyCaptureWriter{ResponseWriter: gc.Writer}
		gc.Writer = bw

		gc.Next()

		if gc.Writer.Status() != http.StatusOK || bw.truncated {
			return
		}

		body := bw.buf.Bytes()
		entry := cachedResponse{
			Status: http.StatusOK,
			Header: map[string]string{"Content-Type": gc.Writer.Header().Get("Content-Type")},
			Body:   body,
			ETag:   fmt.Sprintf("%q", fmt.Sprintf("%016x", xxhash.Sum64(body))),
		}

		// 失败只意味着下次不命中
		_ = appcache.Set(gc.Request.Context(), c, key, entry, ttl)
	}
}

// cacheKey 方法 + 用户 + 路径 + 排序后的 query 哈希成短键，按用户隔离.
func cacheKey(c *gin.Context) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(':')
	b.WriteString(GetUserID(c))
	b.WriteByte(':')
	b.WriteString(c.Request.URL.Path)

	if q := c.Request.URL.Query(); len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		b.WriteByte('?')

		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(q[k], ","))
		}
	}

	return fmt.Sprintf("rc:%016x", xxhash.Sum64String(b.String()))
}

func serveCached(c *gin.Context, entry *cachedResponse) {
	if entry.ETag != "" && c.GetHeader("If-None-Match") == entry.ETag {
		c.Header("ETag", entry.ETag)
		c.Header("X-Cache", "HIT")
		c.AbortWithStatus(http.StatusNotModified)

		return
	}

	for k, v := range entry.Header {
		if v != "" {
			c.Header(k, v)
		}
	}

	if entry.ETag != "" {
		c.Header("ETag", entry.ETag)
	}

	c.Header("X-Cache", "HIT")
	c.Data(entry.Status, entry.Header["Content-Type"], entry.Body)
	c.Abort()
}

// bodyCaptureWriter 包装响应写入用于捕获 body，超限则放弃捕获.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	truncated bool
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.buf.Len()+len(b) > cacheMaxBodyBytes {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/blobvault/pkg/context"
)

const healthTimeout = 2 * time.Second

// Health 汇总健康状态，核心依赖（DB 与对象存储）任一不可用即 503.
func Health(c *gin.Context) {
	components := gin.H{}
	healthy := true

	if err := pingDB(c); err != nil {
		components["db"] = err.Error()
		healthy = false
	} else {
		components["db"] = "ok"
	}

	if err := pingBlob(c); err != nil {
		components["blob"] = err.Error()
		healthy = false
	} else {
		components["blob"] = "ok"
	}

	status := http.StatusOK
	overall := "ok"

	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	if err := pingDB(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthBlob 对象存储健康检查.
func HealthBlob(c *gin.Context) {
	if err := pingBlob(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "blob", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "blob", "status": "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "mq", "status": "unhealthy", "error": "mq client not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}

// HealthKV KV 存储健康检查.
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "kv", "status": "unhealthy", "error": "kv client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if _, err := kvc.Exists(ctx, "healthcheck"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "kv", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "ok"})
}

func pingDB(c *gin.Context) error {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil { // dbc.DB 来自于嵌入的 *gorm.DB
		return errNotInitialized("db")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func pingBlob(c *gin.Context) error {
	store := ctxPkg.GetBlobStore(c.Request.Context())
	if store == nil {
		return errNotInitialized("blob store")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	// 探测一个不存在的键即可验证后端连通性
	_, err := store.Exists(ctx, "sha256/00/00/healthcheck")

	return err
}

type notInitializedError string

func errNotInitialized(component string) error { return notInitializedError(component) }

func (e notInitializedError) Error() string { return string(e) + " client not initialized" }

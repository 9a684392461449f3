// Package api 对外暴露路由挂载入口，便于将保管库接口嵌入到已有的 gin 服务.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/router"
)

// RegisterGroup 将全部业务路由挂载到传入 gin 引擎的 /api/v1 分组下.
// 嵌入方需要自行安排认证与存储中间件.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	router.RegisterAPIRoutes(e.Group("/api/v1"), router.Options{})

	return e
}

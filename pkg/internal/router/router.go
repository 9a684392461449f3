// Package router 管理路由配置，将路径绑定到 pkg/internal/handle 的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// Options 控制路由注册的可选行为.
type Options struct {
	// CacheMiddleware 应用在列表与统计等只读路由上，为 nil 时不启用
	CacheMiddleware gin.HandlerFunc
	// SchedulerRoutes 是否暴露调度器管理接口
	SchedulerRoutes bool
}

// RegisterAPIRoutes 注册 /api/v1 下的全部业务路由.
func RegisterAPIRoutes(g *gin.RouterGroup, opts Options) {
	RegisterFilesRoutes(g, opts.CacheMiddleware)
	RegisterStatsRoutes(g, opts.CacheMiddleware)
	RegisterHealthCheckRoute(g)

	if opts.SchedulerRoutes {
		RegisterSchedulerRoutes(g)
	}
}

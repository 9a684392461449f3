package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计相关路由.
func RegisterStatsRoutes(g *gin.RouterGroup, cacheMW gin.HandlerFunc) {
	statsRoutes := g.Group("/stats")
	{
		if cacheMW != nil {
			statsRoutes.GET("", cacheMW, handle.GetVaultStats)
			statsRoutes.GET("/quota", cacheMW, handle.GetQuotaStats)
		} else {
			statsRoutes.GET("", handle.GetVaultStats)
			statsRoutes.GET("/quota", handle.GetQuotaStats)
		}
	}
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件操作相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup, cacheMW gin.HandlerFunc) {
	filesRoutes := g.Group("/files")
	{
		// 上传（multipart 表单的 file 字段）
		filesRoutes.POST("", handle.UploadFile)

		// 列表与 MIME 类型是只读热点，可选缓存
		if cacheMW != nil {
			filesRoutes.GET("", cacheMW, handle.ListFiles)
			filesRoutes.GET("/mime-types", cacheMW, handle.ListMimeTypes)
		} else {
			filesRoutes.GET("", handle.ListFiles)
			filesRoutes.GET("/mime-types", handle.ListMimeTypes)
		}

		// 单个文件操作
		singleGroup := filesRoutes.Group("/:id")
		{
			singleGroup.GET("", handle.GetFileMeta)
			singleGroup.GET("/download", handle.DownloadFile)
			singleGroup.DELETE("", handle.DeleteFile)
		}
	}
}

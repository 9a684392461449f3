package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/internal/types"
	"github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/rule"
)

// ListFiles 分页列出当前用户的文件。
//
//	@Summary		文件列表
//	@Description	支持文件名子串、MIME、大小与上传时间区间过滤，按上传时间倒序
//	@Tags			文件
//	@Produce		json
//	@Param			content_type	query		string					false	"按 MIME 精确过滤"
//	@Param			search			query		string					false	"文件名子串"
//	@Param			page			query		int						false	"页码，从 1 开始"
//	@Param			page_size		query		int						false	"每页条数，上限 100"
//	@Success		200				{object}	types.ListFilesResponse	"文件列表"
//	@Router			/api/v1/files [get]
func ListFiles(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.ListFilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid list query")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), user, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMimeTypes 返回当前用户文件中出现过的 MIME 类型。
//
//	@Summary	MIME 类型列表
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.MimeTypesResponse	"MIME 类型"
//	@Router		/api/v1/files/mime-types [get]
func ListMimeTypes(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.DistinctMimeTypes(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

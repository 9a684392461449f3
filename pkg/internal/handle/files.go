package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/log"
)

// UploadFile 处理 multipart 文件上传。
//
//	@Summary		上传文件
//	@Description	接收 multipart 表单的 file 字段，按内容去重后计入用户配额
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file						true	"文件内容"
//	@Success		201		{object}	types.UploadFileResponse	"上传结果"
//	@Failure		400		{object}	map[string]string			"校验失败"
//	@Failure		429		{object}	map[string]string			"配额不足"
//	@Router			/api/v1/files [post]
func UploadFile(c *gin.Context) {
	l := log.Logger()

	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("no file provided")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	f, err := fh.Open()
	if err != nil {
		l.Warn().Err(err).Str("file_name", fh.Filename).Msg("open multipart file failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})

		return
	}
	defer f.Close()

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Upload(c.Request.Context(), user, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// DeleteFile 删除一条文件记录。
//
//	@Summary	删除文件
//	@Tags		文件
//	@Produce	json
//	@Param		id	path		string						true	"文件 ID"
//	@Success	200	{object}	types.DeleteFileResponse	"删除结果"
//	@Failure	404	{object}	map[string]string			"文件不存在"
//	@Router		/api/v1/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Delete(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFileMeta 返回单条文件元信息。
//
//	@Summary	文件元信息
//	@Tags		文件
//	@Produce	json
//	@Param		id	path		string				true	"文件 ID"
//	@Success	200	{object}	types.FileInfo		"文件元信息"
//	@Failure	404	{object}	map[string]string	"文件不存在"
//	@Router		/api/v1/files/{id} [get]
func GetFileMeta(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	info, err := svc.GetFile(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

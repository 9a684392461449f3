package handle

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/log"
)

// DownloadFile 流式返回文件内容。
//
//	@Summary		下载文件
//	@Description	以 attachment 方式流式返回文件内容
//	@Tags			文件
//	@Produce		application/octet-stream
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{file}		binary				"文件内容"
//	@Failure		404	{object}	map[string]string	"文件不存在"
//	@Router			/api/v1/files/{id}/download [get]
func DownloadFile(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	info, rc, err := svc.Download(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Header("Content-Disposition", contentDisposition(info.FileName))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, rc); err != nil {
		// 响应头已发出，只能记日志
		log.Logger().Warn().Err(err).Str("file_id", info.ID).Msg("stream download interrupted")
	}
}

// contentDisposition 同时带 filename 与 RFC 5987 filename*，非 ASCII 文件名交给后者.
func contentDisposition(name string) string {
	fallback := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 32 && r < 127 && r != '"' && r != '\\' {
			fallback = append(fallback, r)
		} else {
			fallback = append(fallback, '_')
		}
	}

	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		string(fallback), url.PathEscape(name))
}

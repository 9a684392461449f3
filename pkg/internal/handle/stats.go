package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/log"
)

// doStats 统一抽取用户、创建 service 并输出 JSON，回调负责具体统计.
func doStats(c *gin.Context, errLogMsg string, fn func(svc *service.VaultService, user string) (any, error)) {
	user, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	data, err := fn(svc, user)
	if err != nil {
		log.Logger().Error().Err(err).Msg(errLogMsg)
		respondServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, data)
}

// GetQuotaStats 当前用户的配额用量。
//
//	@Summary	配额统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.QuotaStatsResponse	"配额视图"
//	@Router		/api/v1/stats/quota [get]
func GetQuotaStats(c *gin.Context) {
	doStats(c, "quota stats failed", func(svc *service.VaultService, user string) (any, error) {
		return svc.QuotaStats(c.Request.Context(), user)
	})
}

// GetVaultStats 配额加按 MIME 聚合的统计。
//
//	@Summary	保管库统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.VaultStatsResponse	"统计视图"
//	@Router		/api/v1/stats [get]
func GetVaultStats(c *gin.Context) {
	doStats(c, "vault stats failed", func(svc *service.VaultService, user string) (any, error) {
		return svc.Stats(c.Request.Context(), user)
	})
}

package service

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid"

	"github.com/yeisme/blobvault/pkg/configs"
	ctxPkg "github.com/yeisme/blobvault/pkg/context"
	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/blobvault/pkg/internal/storage/db"
	mqc "github.com/yeisme/blobvault/pkg/internal/storage/mq"
	"github.com/yeisme/blobvault/pkg/internal/types"
	nlog "github.com/yeisme/blobvault/pkg/log"
)

// VaultService 文件保管库的业务核心：校验、哈希、去重、配额与目录在这里编排，
// 不处理 HTTP 细节.
type VaultService struct {
	dbClient *dbc.Client
	mqClient *mqc.Client // 未启用 MQ 时为 nil，事件发布自动跳过
	blobs    *blobStore
	catalog  fileCatalog
	quota    *quotaLedger
	cfg      *configs.AppConfig
}

// NewVaultService 从 context 获取依赖实例.
func NewVaultService(c context.Context) *VaultService {
	dbCli := ctxPkg.GetDBClient(c)
	store := ctxPkg.GetBlobStore(c)

	// 为了安全起见，应该直接 panic 而不是返回 nil，依赖此服务就不需要再检查
	if dbCli == nil || dbCli.DB == nil || store == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return NewVaultServiceWith(dbCli, store, ctxPkg.GetMQClient(c), configs.GetConfig())
}

// NewVaultServiceWith 显式注入依赖，测试与嵌入场景使用.
func NewVaultServiceWith(dbCli *dbc.Client, store blob.ObjectStore, mqCli *mqc.Client, cfg *configs.AppConfig) *VaultService {
	return &VaultService{
		dbClient: dbCli,
		mqClient: mqCli,
		blobs:    newBlobStore(dbCli.GetDB(), store),
		quota:    newQuotaLedger(cfg.Vault.DefaultQuotaBytes),
		cfg:      cfg,
	}
}

// newFileID 生成按时间有序的文件记录 ID（ULID）。
// 熵用 crypto/rand：并发安全，同一纳秒内多次调用也不会撞出相同 ID.
func newFileID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// toFileInfo 数据库记录转对外展示结构.
func toFileInfo(rec *model.FileRecord) types.FileInfo {
	return types.FileInfo{
		ID:          rec.ID,
		FileName:    rec.FileName,
		Size:        rec.Size,
		SizeDisplay: humanize.Bytes(uint64(rec.Size)),
		ContentType: rec.ContentType,
		ContentHash: rec.ContentHash,
		UploadedAt:  rec.UploadedAt,
	}
}

// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	ctxPkg "github.com/yeisme/blobvault/pkg/context"
	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	"github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
	"github.com/yeisme/blobvault/pkg/scheduler"
)

// orphanGracePeriod 0 引用的 blob 行要先活过这个窗口才会被清理：
// 上传流程先建行后加引用，刚创建的行可能正要被并发上传引用.
const orphanGracePeriod = time.Hour

// sweepBatchSize 每轮清理最多处理的 blob 数.
const sweepBatchSize = 256

// RegisterCronJobs 配置业务定时任务：
//   - 每小时第 15 分清理无引用且过了宽限期的孤儿 blob
//   - 每天 03:45 审计配额账本与目录实际用量的偏差
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobOrphanBlobSweep, CronOrphanBlobSweep, func(ctx context.Context) {
		runOrphanBlobSweep(ctx, mgr)
	}, baseCtx)

	_ = sched.AddCron(JobQuotaAudit, CronQuotaAudit, func(ctx context.Context) {
		runQuotaAudit(ctx, mgr)
	}, baseCtx)

	return nil
}

// runOrphanBlobSweep 清理引用计数为 0、创建超过宽限期的 blob：先删行再删对象。
// 删行带 reference_count = 0 条件，和并发上传的引用加一互斥.
func runOrphanBlobSweep(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobOrphanBlobSweep).Logger()

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)
	store := mgr.GetBlobStore()
	cutoff := time.Now().UTC().Add(-orphanGracePeriod)

	var orphans []model.Blob
	if err := dbx.Where("reference_count = 0 AND updated_at < ?", cutoff).
		Limit(sweepBatchSize).
		Find(&orphans).Error; err != nil {
		l.Error().Err(err).Msg("list orphan blobs failed")
		return
	}

	removed := 0

	for i := range orphans {
		o := &orphans[i]

		res := dbx.Where("content_hash = ? AND reference_count = 0", o.ContentHash).Delete(&model.Blob{})
		if res.Error != nil {
			l.Error().Err(res.Error).Str("content_hash", o.ContentHash).Msg("delete orphan row failed")
			continue
		}

		// 宽限期后仍可能被重新引用，行没删掉就跳过
		if res.RowsAffected == 0 {
			continue
		}

		if err := store.Remove(ctx, blob.ObjectKey(o.ContentHash)); err != nil {
			l.Error().Err(err).Str("content_hash", o.ContentHash).Msg("remove orphan object failed")
			metrics.IntegrityAnomalyCounter.WithLabelValues("object_remove").Inc()

			continue
		}

		metrics.OrphanSweepCounter.Inc()

		removed++
	}

	if removed > 0 {
		l.Info().Int("removed", removed).Msg("orphan blobs swept")
	}
}

// runQuotaAudit 对每个配额账户重算目录中的逻辑用量，和账本不一致记为异常。
// 审计只报告不修正：账本以原子预留/释放为准，偏差说明有 bug 需要人工看.
func runQuotaAudit(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobQuotaAudit).Logger()

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	var accounts []model.QuotaAccount
	if err := dbx.Find(&accounts).Error; err != nil {
		l.Error().Err(err).Msg("list quota accounts failed")
		return
	}

	drifted := 0

	for i := range accounts {
		acc := &accounts[i]

		var actual int64
		if err := dbx.Model(&model.FileRecord{}).
			Where("owner_id = ?", acc.OwnerID).
			Select("COALESCE(SUM(size), 0)").
			Scan(&actual).Error; err != nil {
			l.Error().Err(err).Str("owner_id", acc.OwnerID).Msg("recompute usage failed")
			continue
		}

		if actual != acc.UsedBytes {
			l.Warn().Str("owner_id", acc.OwnerID).
				Int64("ledger_bytes", acc.UsedBytes).
				Int64("actual_bytes", actual).
				Msg("quota ledger drift detected")
			metrics.IntegrityAnomalyCounter.WithLabelValues("quota_drift").Inc()

			drifted++
		}
	}

	l.Info().Int("accounts", len(accounts)).Int("drifted", drifted).Msg("quota audit done")
}

package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/blobvault/pkg/internal/model"
	nlog "github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
)

// quotaLedger 每用户字节配额账本。
// Reserve 和 release 都是单条条件 UPDATE，同一用户的并发操作在行上串行化，
// 两个加起来会超限的上传不可能同时通过检查.
type quotaLedger struct {
	defaultLimit int64
}

func newQuotaLedger(defaultLimit int64) *quotaLedger {
	return &quotaLedger{defaultLimit: defaultLimit}
}

// ensureAccount 懒创建账户行，已存在则忽略.
func (q *quotaLedger) ensureAccount(tx *gorm.DB, ownerID string) error {
	acc := model.QuotaAccount{OwnerID: ownerID, UsedBytes: 0, LimitBytes: q.defaultLimit}

	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acc).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("ensure quota account %s: %w", ownerID, err)
	}

	return nil
}

// reserve 预留 delta 字节，额度不够返回 QuotaExceededError 且不产生任何变更.
func (q *quotaLedger) reserve(tx *gorm.DB, ownerID string, delta int64) error {
	if err := q.ensureAccount(tx, ownerID); err != nil {
		return err
	}

	res := tx.Model(&model.QuotaAccount{}).
		Where("owner_id = ? AND used_bytes + ? <= limit_bytes", ownerID, delta).
		Update("used_bytes", gorm.Expr("used_bytes + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("reserve quota for %s: %w", ownerID, res.Error)
	}

	if res.RowsAffected == 0 {
		var acc model.QuotaAccount
		if err := tx.Where("owner_id = ?", ownerID).First(&acc).Error; err != nil {
			return fmt.Errorf("read quota account %s: %w", ownerID, err)
		}

		return &QuotaExceededError{
			OwnerID:        ownerID,
			RequestedBytes: delta,
			UsedBytes:      acc.UsedBytes,
			LimitBytes:     acc.LimitBytes,
		}
	}

	return nil
}

// release 归还 delta 字节，余额不足时钳到 0 并记一次异常.
func (q *quotaLedger) release(tx *gorm.DB, ownerID string, delta int64) error {
	res := tx.Model(&model.QuotaAccount{}).
		Where("owner_id = ? AND used_bytes >= ?", ownerID, delta).
		Update("used_bytes", gorm.Expr("used_bytes - ?", delta))
	if res.Error != nil {
		return fmt.Errorf("release quota for %s: %w", ownerID, res.Error)
	}

	if res.RowsAffected == 0 {
		nlog.Logger().Warn().Str("owner_id", ownerID).Int64("delta", delta).
			Msg("quota release exceeds used bytes, clamped to zero")
		metrics.IntegrityAnomalyCounter.WithLabelValues("quota_clamp").Inc()

		clamp := tx.Model(&model.QuotaAccount{}).
			Where("owner_id = ?", ownerID).
			Update("used_bytes", 0)
		if clamp.Error != nil {
			return fmt.Errorf("clamp quota for %s: %w", ownerID, clamp.Error)
		}
	}

	return nil
}

// stats 读取账户用量，账户尚未创建时返回零用量与默认额度.
func (q *quotaLedger) stats(ctx context.Context, db *gorm.DB, ownerID string) (used, limit int64, err error) {
	var acc model.QuotaAccount

	err = db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, q.defaultLimit, nil
	}

	if err != nil {
		return 0, 0, fmt.Errorf("read quota account %s: %w", ownerID, err)
	}

	return acc.UsedBytes, acc.LimitBytes, nil
}

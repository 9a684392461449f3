package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/types"
	nlog "github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
)

// 上传计量的结果标签.
const (
	uploadAccepted           = "accepted"
	uploadRejectedValidation = "rejected_validation"
	uploadRejectedQuota      = "rejected_quota"
	uploadFailed             = "failed"
)

// Upload 接收一个文件流并提交到保管库。
// 流水线：校验 → 流式哈希 → blob 取或建 → 单事务内配额预留 + 引用加一 + 目录写入。
// 去重命中也按完整逻辑大小计入配额：用户删除文件时要能等量退回，
// 物理上是否共享对象与账本无关.
func (s *VaultService) Upload(ctx context.Context, ownerID, fileName, contentType string,
	r io.Reader,
) (*types.UploadFileResponse, error) {
	cleanName, err := validateUpload(&s.cfg.Vault, fileName, contentType)
	if err != nil {
		metrics.UploadCounter.WithLabelValues(uploadRejectedValidation).Inc()
		return nil, err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	payload, err := hashAndSpool(r, s.cfg.Vault.MaxFileSizeBytes)
	if err != nil {
		if IsValidation(err) {
			metrics.UploadCounter.WithLabelValues(uploadRejectedValidation).Inc()
		} else {
			metrics.UploadCounter.WithLabelValues(uploadFailed).Inc()
		}

		return nil, err
	}
	defer func() {
		if cerr := payload.Close(); cerr != nil {
			nlog.Logger().Warn().Err(cerr).Msg("discard upload spool failed")
		}
	}()

	if payload.Size() == 0 {
		metrics.UploadCounter.WithLabelValues(uploadRejectedValidation).Inc()
		return nil, &ValidationError{Field: "file", Reason: "must not be empty"}
	}

	rec := &model.FileRecord{
		ID:          newFileID(),
		OwnerID:     ownerID,
		FileName:    cleanName,
		Size:        payload.Size(),
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}

	var (
		blobRow *model.Blob
		created bool
	)

	// 去重命中的行可能在提交前被末次引用的删除带走，此时重新走一遍 blob 解析（有界重试）.
	for attempt := range blobConflictRetries {
		blobRow, created, err = s.blobs.getOrCreate(ctx, payload, contentType)
		if err != nil {
			metrics.UploadCounter.WithLabelValues(uploadFailed).Inc()
			return nil, err
		}

		rec.ContentHash = blobRow.ContentHash

		err = s.dbClient.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.quota.reserve(tx, ownerID, rec.Size); err != nil {
				return err
			}

			if err := s.blobs.incrementRef(tx, rec.ContentHash); err != nil {
				return err
			}

			return s.catalog.insert(tx, rec)
		})
		if errors.Is(err, errBlobRowMissing) && attempt+1 < blobConflictRetries {
			continue
		}

		break
	}
	if err != nil {
		var qe *QuotaExceededError
		if errors.As(err, &qe) {
			metrics.UploadCounter.WithLabelValues(uploadRejectedQuota).Inc()
			metrics.QuotaRejectionCounter.Inc()

			// 本次新建且还没人引用的 blob 不能留成孤儿
			if created {
				s.blobs.removeOrphan(ctx, rec.ContentHash)
			}

			s.publishQuotaExceeded(ctx, qe, cleanName)
		} else {
			metrics.UploadCounter.WithLabelValues(uploadFailed).Inc()
		}

		return nil, err
	}

	metrics.UploadCounter.WithLabelValues(uploadAccepted).Inc()

	if !created {
		metrics.DedupHitCounter.Inc()
	}

	used, _, err := s.quota.stats(ctx, s.dbClient.GetDB(), ownerID)
	if err != nil {
		return nil, fmt.Errorf("read quota after upload: %w", err)
	}

	if created {
		s.publishBlobCreated(ctx, blobRow)
	}

	s.publishFileUploaded(ctx, rec, !created, used)

	return &types.UploadFileResponse{
		File:           toFileInfo(rec),
		Deduplicated:   !created,
		QuotaUsedBytes: used,
	}, nil
}

package service

import (
	"context"

	"github.com/yeisme/blobvault/pkg/internal/model"
	nlog "github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/queue"
)

// 事件发布是尽力而为：MQ 未启用或发布失败都不影响已提交的业务结果，
// 失败只记日志。幂等键取业务 ID，重发在 JetStream 端收敛.

func (s *VaultService) eventsEnabled() bool {
	return s.mqClient != nil && s.cfg.Events.Enabled
}

func fileRef(rec *model.FileRecord) queue.FileRef {
	return queue.FileRef{
		FileID:      rec.ID,
		OwnerID:     rec.OwnerID,
		FileName:    rec.FileName,
		ContentHash: rec.ContentHash,
		Size:        rec.Size,
		ContentType: rec.ContentType,
	}
}

func (s *VaultService) publishFileUploaded(ctx context.Context, rec *model.FileRecord, deduplicated bool, quotaUsed int64) {
	if !s.eventsEnabled() || !s.cfg.Events.File.Uploaded {
		return
	}

	payload := queue.FileUploadedPayload{
		File:           fileRef(rec),
		Deduplicated:   deduplicated,
		QuotaUsedBytes: quotaUsed,
	}

	if err := queue.PublishFileUploaded(ctx, s.mqClient, payload, queue.WithDedupKey(rec.ID)); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", rec.ID).Msg("publish file.uploaded failed")
	}
}

func (s *VaultService) publishFileDeleted(ctx context.Context, rec *model.FileRecord, releasedBytes int64, blobRemoved bool) {
	if !s.eventsEnabled() || !s.cfg.Events.File.Deleted {
		return
	}

	payload := queue.FileDeletedPayload{
		File:          fileRef(rec),
		ReleasedBytes: releasedBytes,
		BlobRemoved:   blobRemoved,
	}

	if err := queue.PublishFileDeleted(ctx, s.mqClient, payload, queue.WithDedupKey(rec.ID)); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", rec.ID).Msg("publish file.deleted failed")
	}
}

func (s *VaultService) publishBlobCreated(ctx context.Context, b *model.Blob) {
	if !s.eventsEnabled() || !s.cfg.Events.Blob.Created {
		return
	}

	payload := queue.BlobCreatedPayload{Blob: queue.BlobRef{
		ContentHash: b.ContentHash,
		ObjectKey:   b.ObjectKey,
		Size:        b.Size,
		ContentType: b.ContentType,
	}}

	if err := queue.PublishBlobCreated(ctx, s.mqClient, payload, queue.WithDedupKey(b.ContentHash)); err != nil {
		nlog.Logger().Warn().Err(err).Str("content_hash", b.ContentHash).Msg("publish blob.created failed")
	}
}

func (s *VaultService) publishBlobReleased(ctx context.Context, hash, objectKey string, size int64, removeFailed bool) {
	if !s.eventsEnabled() || !s.cfg.Events.Blob.Released {
		return
	}

	payload := queue.BlobReleasedPayload{
		Blob:               queue.BlobRef{ContentHash: hash, ObjectKey: objectKey, Size: size},
		ObjectRemoveFailed: removeFailed,
	}

	if err := queue.PublishBlobReleased(ctx, s.mqClient, payload, queue.WithDedupKey(hash)); err != nil {
		nlog.Logger().Warn().Err(err).Str("content_hash", hash).Msg("publish blob.released failed")
	}
}

func (s *VaultService) publishQuotaExceeded(ctx context.Context, qe *QuotaExceededError, fileName string) {
	if !s.eventsEnabled() || !s.cfg.Events.Quota.Exceeded {
		return
	}

	payload := queue.QuotaExceededPayload{
		OwnerID:        qe.OwnerID,
		RequestedBytes: qe.RequestedBytes,
		UsedBytes:      qe.UsedBytes,
		LimitBytes:     qe.LimitBytes,
		FileName:       fileName,
	}

	if err := queue.PublishQuotaExceeded(ctx, s.mqClient, payload); err != nil {
		nlog.Logger().Warn().Err(err).Str("owner_id", qe.OwnerID).Msg("publish quota.exceeded failed")
	}
}

package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	"github.com/yeisme/blobvault/pkg/internal/types"
)

// Delete 删除用户的一条文件记录，引用归零时物理对象一并回收。
// 记录删除、引用减一与配额退还在同一个事务里；物理对象的删除放在提交后，
// 失败只记异常，由后台清理兜底，不会让逻辑删除回滚.
func (s *VaultService) Delete(ctx context.Context, ownerID, fileID string) (*types.DeleteFileResponse, error) {
	var (
		rec         *model.FileRecord
		blobRemoved bool
	)

	err := s.dbClient.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		rec, err = s.catalog.deleteOwned(tx, ownerID, fileID)
		if err != nil {
			return err
		}

		blobRemoved, err = s.blobs.decrementRef(tx, rec.ContentHash)
		if err != nil {
			return err
		}

		return s.quota.release(tx, ownerID, rec.Size)
	})
	if err != nil {
		return nil, err
	}

	removeFailed := false
	if blobRemoved {
		removeFailed = !s.blobs.removeObject(ctx, rec.ContentHash)
		s.publishBlobReleased(ctx, rec.ContentHash, blob.ObjectKey(rec.ContentHash), rec.Size, removeFailed)
	}

	s.publishFileDeleted(ctx, rec, rec.Size, blobRemoved)

	return &types.DeleteFileResponse{
		ID:            rec.ID,
		ReleasedBytes: rec.Size,
		BlobRemoved:   blobRemoved,
	}, nil
}

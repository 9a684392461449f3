package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	"github.com/yeisme/blobvault/pkg/internal/types"
	nlog "github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
)

// Download 返回文件元信息与内容流，调用方负责关闭 reader。
// 记录存在但物理对象缺失属于存储完整性异常，记数后对调用方按文件不存在处理.
func (s *VaultService) Download(ctx context.Context, ownerID, fileID string) (*types.FileInfo, io.ReadCloser, error) {
	rec, err := s.catalog.getOwned(ctx, s.dbClient.GetDB(), ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	key := blob.ObjectKey(rec.ContentHash)

	rc, err := s.blobs.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			nlog.Logger().Error().Str("file_id", rec.ID).Str("object_key", key).
				Msg("file record points at missing object")
			metrics.IntegrityAnomalyCounter.WithLabelValues("object_missing").Inc()

			return nil, nil, fmt.Errorf("open object %s: %w", key, ErrNotFound)
		}

		return nil, nil, fmt.Errorf("open object %s: %w", key, err)
	}

	info := toFileInfo(rec)

	return &info, rc, nil
}

// GetFile 返回单条文件元信息.
func (s *VaultService) GetFile(ctx context.Context, ownerID, fileID string) (*types.FileInfo, error) {
	rec, err := s.catalog.getOwned(ctx, s.dbClient.GetDB(), ownerID, fileID)
	if err != nil {
		return nil, err
	}

	info := toFileInfo(rec)

	return &info, nil
}

package service

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/yeisme/blobvault/pkg/internal/types"
)

// QuotaStats 当前用户的配额与去重视图.
func (s *VaultService) QuotaStats(ctx context.Context, ownerID string) (*types.QuotaStatsResponse, error) {
	db := s.dbClient.GetDB()

	used, limit, err := s.quota.stats(ctx, db, ownerID)
	if err != nil {
		return nil, err
	}

	count, _, err := s.catalog.countAndSize(ctx, db, ownerID)
	if err != nil {
		return nil, err
	}

	saved, err := s.catalog.dedupSavedBytes(ctx, db, ownerID)
	if err != nil {
		return nil, err
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &types.QuotaStatsResponse{
		OwnerID:         ownerID,
		UsedBytes:       used,
		LimitBytes:      limit,
		RemainingBytes:  remaining,
		UsedDisplay:     humanize.Bytes(uint64(used)),
		LimitDisplay:    humanize.Bytes(uint64(limit)),
		FileCount:       count,
		DedupSavedBytes: saved,
	}, nil
}

// Stats 配额视图加按 MIME 的聚合.
func (s *VaultService) Stats(ctx context.Context, ownerID string) (*types.VaultStatsResponse, error) {
	quota, err := s.QuotaStats(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byType, err := s.catalog.byType(ctx, s.dbClient.GetDB(), ownerID)
	if err != nil {
		return nil, err
	}

	return &types.VaultStatsResponse{
		Quota:  *quota,
		ByType: byType,
	}, nil
}

package service

import (
	"context"

	"github.com/yeisme/blobvault/pkg/internal/types"
)

// List 分页列出当前用户的文件，默认按上传时间倒序.
func (s *VaultService) List(ctx context.Context, ownerID string, req *types.ListFilesRequest) (*types.ListFilesResponse, error) {
	rows, total, err := s.catalog.list(ctx, s.dbClient.GetDB(), ownerID, req, &s.cfg.Vault)
	if err != nil {
		return nil, err
	}

	files := make([]types.FileInfo, 0, len(rows))
	for i := range rows {
		files = append(files, toFileInfo(&rows[i]))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = s.cfg.Vault.DefaultPageSize
	}

	if pageSize > s.cfg.Vault.MaxPageSize {
		pageSize = s.cfg.Vault.MaxPageSize
	}

	return &types.ListFilesResponse{
		Files:    files,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DistinctMimeTypes 当前用户文件中出现过的 MIME 类型.
func (s *VaultService) DistinctMimeTypes(ctx context.Context, ownerID string) (*types.MimeTypesResponse, error) {
	mimeTypes, err := s.catalog.distinctMimeTypes(ctx, s.dbClient.GetDB(), ownerID)
	if err != nil {
		return nil, err
	}

	return &types.MimeTypesResponse{MimeTypes: mimeTypes}, nil
}

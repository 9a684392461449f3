package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/types"
)

// fileCatalog 用户文件目录的读写。所有查询都带 owner_id 条件，
// 不存在与不属于当前用户在这里统一成 ErrNotFound.
type fileCatalog struct{}

// insert 在事务里写入一条文件记录.
func (fileCatalog) insert(tx *gorm.DB, rec *model.FileRecord) error {
	if err := tx.Create(rec).Error; err != nil {
		return fmt.Errorf("insert file record %s: %w", rec.ID, err)
	}

	return nil
}

// getOwned 按 id 读取，强制校验归属.
func (fileCatalog) getOwned(ctx context.Context, db *gorm.DB, ownerID, fileID string) (*model.FileRecord, error) {
	var rec model.FileRecord

	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", fileID, ownerID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("read file record %s: %w", fileID, err)
	}

	return &rec, nil
}

// deleteOwned 事务内按 id 硬删除，返回被删的记录.
func (fileCatalog) deleteOwned(tx *gorm.DB, ownerID, fileID string) (*model.FileRecord, error) {
	var rec model.FileRecord

	err := tx.Where("id = ? AND owner_id = ?", fileID, ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("read file record %s: %w", fileID, err)
	}

	res := tx.Where("id = ? AND owner_id = ?", fileID, ownerID).Delete(&model.FileRecord{})
	if res.Error != nil {
		return nil, fmt.Errorf("delete file record %s: %w", fileID, res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return &rec, nil
}

// list 组合过滤条件做分页查询，默认按上传时间倒序.
func (fileCatalog) list(ctx context.Context, db *gorm.DB, ownerID string,
	req *types.ListFilesRequest, cfg *configs.VaultConfig,
) ([]model.FileRecord, int64, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}

	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = cfg.DefaultPageSize
	}

	if pageSize > cfg.MaxPageSize {
		pageSize = cfg.MaxPageSize
	}

	q := db.WithContext(ctx).Model(&model.FileRecord{}).Where("owner_id = ?", ownerID)

	if req.ContentType != "" {
		q = q.Where("content_type = ?", req.ContentType)
	}

	if req.Search != "" {
		// sqlite 的 LIKE 默认没有转义字符，显式声明保证跨方言一致
		q = q.Where("file_name LIKE ? ESCAPE '\\'", "%"+escapeLike(req.Search)+"%")
	}

	if req.MinSize > 0 {
		q = q.Where("size >= ?", req.MinSize)
	}

	if req.MaxSize > 0 {
		q = q.Where("size <= ?", req.MaxSize)
	}

	if req.UploadedAfter != nil {
		q = q.Where("uploaded_at >= ?", *req.UploadedAfter)
	}

	if req.UploadedBefore != nil {
		q = q.Where("uploaded_at <= ?", *req.UploadedBefore)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count file records: %w", err)
	}

	var rows []model.FileRecord

	err := q.Order("uploaded_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list file records: %w", err)
	}

	return rows, total, nil
}

// distinctMimeTypes 该用户文件中出现过的 MIME 类型，字典序.
func (fileCatalog) distinctMimeTypes(ctx context.Context, db *gorm.DB, ownerID string) ([]string, error) {
	var mimeTypes []string

	err := db.WithContext(ctx).Model(&model.FileRecord{}).
		Where("owner_id = ?", ownerID).
		Distinct("content_type").
		Order("content_type ASC").
		Pluck("content_type", &mimeTypes).Error
	if err != nil {
		return nil, fmt.Errorf("distinct mime types: %w", err)
	}

	return mimeTypes, nil
}

// countAndSize 该用户的文件数与逻辑字节总和.
func (fileCatalog) countAndSize(ctx context.Context, db *gorm.DB, ownerID string) (count, size int64, err error) {
	row := struct {
		Count int64
		Size  int64
	}{}

	err = db.WithContext(ctx).Model(&model.FileRecord{}).
		Where("owner_id = ?", ownerID).
		Select("COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate file records: %w", err)
	}

	return row.Count, row.Size, nil
}

// dedupSavedBytes 去重节省 = 逻辑字节和 - 去重后实际存储字节和（仅看该用户引用到的 blob）.
func (fileCatalog) dedupSavedBytes(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var physical int64

	err := db.WithContext(ctx).Model(&model.Blob{}).
		Where("content_hash IN (?)",
			db.Model(&model.FileRecord{}).
				Where("owner_id = ?", ownerID).
				Distinct("content_hash").
				Select("content_hash"),
		).
		Select("COALESCE(SUM(size), 0)").
		Scan(&physical).Error
	if err != nil {
		return 0, fmt.Errorf("sum distinct blob sizes: %w", err)
	}

	var logical int64

	err = db.WithContext(ctx).Model(&model.FileRecord{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(size), 0)").
		Scan(&logical).Error
	if err != nil {
		return 0, fmt.Errorf("sum file record sizes: %w", err)
	}

	return logical - physical, nil
}

// byType 按 MIME 聚合条数与字节数.
func (fileCatalog) byType(ctx context.Context, db *gorm.DB, ownerID string) ([]types.StatsTypeItem, error) {
	var items []types.StatsTypeItem

	err := db.WithContext(ctx).Model(&model.FileRecord{}).
		Where("owner_id = ?", ownerID).
		Select("content_type, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Group("content_type").
		Order("size DESC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate by content type: %w", err)
	}

	return items, nil
}

// escapeLike 转义 LIKE 模式中的 % 和 _，用户输入按字面匹配.
func escapeLike(s string) string {
	r := make([]byte, 0, len(s))

	for i := range len(s) {
		switch s[i] {
		case '%', '_', '\\':
			r = append(r, '\\')
		}

		r = append(r, s[i])
	}

	return string(r)
}

package types

import "time"

// ListFilesRequest 文件列表查询参数.
type ListFilesRequest struct {
	// 可选：按 MIME 精确过滤，如 image/png
	ContentType string `form:"content_type" json:"content_type,omitempty" rule:"omitempty,max=100"`
	// 可选：文件名子串匹配
	Search string `form:"search" json:"search,omitempty" rule:"omitempty,max=255"`
	// 可选：大小区间（字节），0 表示不限
	MinSize int64 `form:"min_size" json:"min_size,omitempty" rule:"omitempty,min=0"`
	MaxSize int64 `form:"max_size" json:"max_size,omitempty" rule:"omitempty,min=0"`
	// 可选：上传时间区间（RFC3339）
	UploadedAfter  *time.Time `form:"uploaded_after"  json:"uploaded_after,omitempty"`
	UploadedBefore *time.Time `form:"uploaded_before" json:"uploaded_before,omitempty"`
	Page           int        `form:"page"      json:"page,omitempty"      rule:"omitempty,min=1"`
	// 每页条数，上限见 configs.MaxPageSize
	PageSize int `form:"page_size" json:"page_size,omitempty" rule:"omitempty,min=1,max=100"`
}

// ListFilesResponse 分页文件列表，默认按上传时间倒序.
type ListFilesResponse struct {
	Files    []FileInfo `json:"files"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

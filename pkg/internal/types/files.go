package types

import "time"

// FileInfo 对外展示的文件条目.
type FileInfo struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	// 人类可读的大小，如 "2.5 MB"
	SizeDisplay string    `json:"size_display"`
	ContentType string    `json:"content_type"`
	ContentHash string    `json:"content_hash"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// UploadFileResponse 上传结果.
type UploadFileResponse struct {
	File FileInfo `json:"file"`
	// 命中已有内容时为 true，对象存储没有发生写入
	Deduplicated bool `json:"deduplicated"`
	// 上传后的已用字节数
	QuotaUsedBytes int64 `json:"quota_used_bytes"`
}

// DeleteFileResponse 删除结果.
type DeleteFileResponse struct {
	ID string `json:"id"`
	// 本次删除释放的配额字节数
	ReleasedBytes int64 `json:"released_bytes"`
	// 引用归零、物理对象随之删除时为 true
	BlobRemoved bool `json:"blob_removed"`
}

package model

import (
	"time"
)

// FileRecord 用户视角的文件条目，指向一个共享的 Blob。
// 删除是硬删除：回收站语义由引用计数和配额共同保证，不需要软删除列。
type FileRecord struct {
	// ULID，字典序即时间序
	ID      string `gorm:"primaryKey;size:26" json:"id"`
	OwnerID string `gorm:"size:64;index:idx_owner_uploaded,priority:1;index:idx_owner_name" json:"owner_id"`
	// 清洗后的文件名，同一用户下允许重名
	FileName string `gorm:"size:255;index:idx_owner_name" json:"file_name"`
	// 指向 blobs.content_hash
	ContentHash string    `gorm:"size:64;index" json:"content_hash"`
	Size        int64     `gorm:"not null"      json:"size"`
	ContentType string    `gorm:"size:100"      json:"content_type"`
	UploadedAt  time.Time `gorm:"index:idx_owner_uploaded,priority:2" json:"uploaded_at"`
}

// TableName FileRecord 表名.
func (FileRecord) TableName() string { return "file_records" }

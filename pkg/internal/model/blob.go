package model

import (
	"time"
)

// Blob 内容寻址的物理对象，每个 SHA-256 只存一行。
// ReferenceCount 记录引用它的 FileRecord 数，归零后行与对象一起删除。
type Blob struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 内容的 SHA-256 十六进制摘要，全局唯一，去重的并发 insert 依赖该唯一索引
	ContentHash string `gorm:"size:64;uniqueIndex:idx_blob_hash" json:"content_hash"`
	// 对象存储中的键，形如 sha256/ab/cd/<hash>
	ObjectKey      string `gorm:"size:128"        json:"object_key"`
	Size           int64  `gorm:"not null"        json:"size"`
	ReferenceCount int64  `gorm:"not null;index"  json:"reference_count"`
	ContentType    string `gorm:"size:100"        json:"content_type"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName Blob 表名.
func (Blob) TableName() string { return "blobs" }

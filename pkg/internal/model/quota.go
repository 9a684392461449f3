package model

import (
	"time"

	"gorm.io/gorm"
)

// QuotaAccount 每个用户一行的配额账本。
// UsedBytes 只通过条件 UPDATE 变更，保证并发上传下不会超扣或超收。
type QuotaAccount struct {
	OwnerID   string `gorm:"primaryKey;size:64" json:"owner_id"`
	UsedBytes int64  `gorm:"not null"           json:"used_bytes"`
	// 账户懒创建时写入全局默认，见 configs.VaultConfig
	LimitBytes int64 `gorm:"not null" json:"limit_bytes"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName QuotaAccount 表名.
func (QuotaAccount) TableName() string { return "quota_accounts" }

// AutoMigrate 建表/补列，服务启动与测试共用。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Blob{}, &FileRecord{}, &QuotaAccount{})
}

package configs

import "github.com/spf13/viper"

const (
	DefaultMaxFileSizeBytes  = 10 * 1024 * 1024 // 单文件最大字节数 (10MB)
	DefaultQuotaBytes        = 10 * 1024 * 1024 // 新账户默认配额 (10MB)
	DefaultMaxFilenameLength = 255              // 文件名最大长度
	DefaultMaxMimeTypeLength = 100              // MIME 类型最大长度
	DefaultPageSize          = 20               // 列表默认分页大小
	DefaultMaxPageSize       = 100              // 列表最大分页大小
)

// DefaultBlockedMimeTypes 禁止上传的可执行与脚本类 MIME 类型.
var DefaultBlockedMimeTypes = []string{
	"application/x-msdownload",
	"application/x-executable",
	"application/x-dosexec",
	"application/x-sh",
	"application/x-shellscript",
	"text/x-sh",
	"text/x-shellscript",
	"application/x-bat",
	"application/x-msdos-program",
}

// VaultConfig 文件保管库约束配置：单文件大小、用户配额与分页限制.
type VaultConfig struct {
	MaxFileSizeBytes  int64    `mapstructure:"max_file_size_bytes"  rule:"min=1"`
	DefaultQuotaBytes int64    `mapstructure:"default_quota_bytes"  rule:"min=1"`
	MaxFilenameLength int      `mapstructure:"max_filename_length"  rule:"min=1,max=255"`
	MaxMimeTypeLength int      `mapstructure:"max_mime_type_length" rule:"min=1,max=255"`
	BlockedMimeTypes  []string `mapstructure:"blocked_mime_types"`
	DefaultPageSize   int      `mapstructure:"default_page_size"    rule:"min=1"`
	MaxPageSize       int      `mapstructure:"max_page_size"        rule:"min=1"`
}

func (c *VaultConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("vault.max_file_size_bytes", DefaultMaxFileSizeBytes)
	v.SetDefault("vault.default_quota_bytes", DefaultQuotaBytes)
	v.SetDefault("vault.max_filename_length", DefaultMaxFilenameLength)
	v.SetDefault("vault.max_mime_type_length", DefaultMaxMimeTypeLength)
	v.SetDefault("vault.blocked_mime_types", DefaultBlockedMimeTypes)
	v.SetDefault("vault.default_page_size", DefaultPageSize)
	v.SetDefault("vault.max_page_size", DefaultMaxPageSize)
}

package configs

import "github.com/spf13/viper"

// BlobBackend 物理 blob 存储后端类型.
type BlobBackend string

const (
	// BlobBackendS3 使用 MinIO/S3 对象存储.
	BlobBackendS3 BlobBackend = "s3"
	// BlobBackendLocal 使用本地文件系统的内容寻址目录.
	BlobBackendLocal BlobBackend = "local"

	DefaultBlobBackend   = BlobBackendS3 // 默认后端
	DefaultBlobLocalRoot = "data/blobs"  // 本地后端的根目录
)

// BlobConfig 物理 blob 存储配置，决定内容寻址对象实际落在哪种后端.
type BlobConfig struct {
	Backend   BlobBackend `mapstructure:"backend"    rule:"oneof=s3 local"`
	LocalRoot string      `mapstructure:"local_root"` // backend=local 时的根目录
}

func (c *BlobConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("blob.backend", DefaultBlobBackend)
	v.SetDefault("blob.local_root", DefaultBlobLocalRoot)
}

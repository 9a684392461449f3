// Package blob 提供内容寻址的物理对象存储抽象.
// 对象以 SHA-256 摘要为键，同一内容只存一份，支持 S3 与本地文件系统两种后端.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yeisme/blobvault/pkg/configs"
)

// ErrObjectNotFound 请求的对象在后端不存在.
var ErrObjectNotFound = errors.New("blob: object not found")

// ObjectStore 物理对象存储接口，键为内容寻址的对象键.
type ObjectStore interface {
	// Put 写入对象. 同一键重复写入视为幂等，内容一致时后写者可直接成功.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get 打开对象读取流，调用方负责 Close.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists 检查对象是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Remove 删除对象. 对象不存在时不报错.
	Remove(ctx context.Context, key string) error
	// Close 释放后端资源.
	Close() error
}

// Factory 定义创建 ObjectStore 的函数类型.
type Factory func(ctx context.Context, cfg *configs.AppConfig) (ObjectStore, error)

// factories 存储后端类型到工厂的映射.
var factories = map[configs.BlobBackend]Factory{}

// RegisterFactory 注册对象存储工厂函数.
func RegisterFactory(backend configs.BlobBackend, factory Factory) {
	factories[backend] = factory
}

// New 根据配置创建对象存储实例.
func New(ctx context.Context, cfg *configs.AppConfig) (ObjectStore, error) {
	factory, ok := factories[cfg.Blob.Backend]
	if !ok {
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.Blob.Backend)
	}

	return factory(ctx, cfg)
}

// ObjectKey 根据 SHA-256 十六进制摘要构造两级扇出的对象键，
// 形如 sha256/ab/cd/abcd... 避免单目录对象过多.
func ObjectKey(hash string) string {
	return fmt.Sprintf("sha256/%s/%s/%s", hash[0:2], hash[2:4], hash)
}

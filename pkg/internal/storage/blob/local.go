package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeisme/blobvault/pkg/configs"
)

// LocalStore 基于本地文件系统的内容寻址对象存储.
// 对象写入先落到 tmp 目录再 rename，保证同一键的并发写入安全.
type LocalStore struct {
	root string
}

// NewLocalStore 创建以 root 为根目录的本地对象存储.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local blob root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}

	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := s.pathFromKey(key)
	if err != nil {
		return err
	}

	// 已存在的同键对象内容一致，直接幂等成功
	if _, err := os.Stat(dst); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()

		return err
	}

	if err := tmp.Close(); err != nil {
		cleanup()

		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()

		return err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		// rename 失败但目标已被并发写入者创建，同内容视为成功
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)

			return nil
		}

		cleanup()

		return err
	}

	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.pathFromKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}

		return nil, err
	}

	return f, nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := s.pathFromKey(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFromKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (s *LocalStore) Close() error {
	return nil
}

// pathFromKey 把对象键映射到根目录下的文件路径，拒绝路径穿越.
func (s *LocalStore) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}

	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob key must be relative")
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid blob key")
	}

	return filepath.Join(s.root, clean), nil
}

// 注册本地文件系统后端工厂函数.
func init() {
	RegisterFactory(configs.BlobBackendLocal, func(ctx context.Context, cfg *configs.AppConfig) (ObjectStore, error) {
		return NewLocalStore(cfg.Blob.LocalRoot)
	})
}

package blob

import (
	"context"
	"errors"
	"io"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/blobvault/pkg/configs"
	s3c "github.com/yeisme/blobvault/pkg/internal/storage/s3"
)

// S3Store 基于 MinIO/S3 的对象存储实现.
type S3Store struct {
	client *s3c.Client
	bucket string
}

// NewS3Store 使用已初始化的 S3 客户端构造对象存储.
func NewS3Store(client *s3c.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts)

	return err
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// GetObject 懒连接，Stat 触发一次请求以区分对象不存在
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()

		var respErr minio.ErrorResponse
		if errors.As(err, &respErr) && respErr.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}

		return nil, err
	}

	return obj, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var respErr minio.ErrorResponse
		if errors.As(err, &respErr) && respErr.Code == "NoSuchKey" {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *S3Store) Close() error {
	return s.client.Close()
}

// 注册 S3 后端工厂函数.
func init() {
	RegisterFactory(configs.BlobBackendS3, func(ctx context.Context, cfg *configs.AppConfig) (ObjectStore, error) {
		client, err := s3c.New(ctx)
		if err != nil {
			return nil, err
		}

		return NewS3Store(client, cfg.S3.BucketName), nil
	})
}

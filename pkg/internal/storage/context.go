package storage

import (
	"context"

	blobc "github.com/yeisme/blobvault/pkg/internal/storage/blob"
)

type contextKey string

const managerKey contextKey = "storageManager"

// WithManager 将 Manager 存储到 context 中.
func WithManager(ctx context.Context, mgr *Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManagerFromContext 从 context 中获取 Manager.
func GetManagerFromContext(ctx context.Context) *Manager {
	if mgr, ok := ctx.Value(managerKey).(*Manager); ok {
		return mgr
	}

	return nil
}

// GetBlobStoreFromContext 从 context 中获取物理对象存储.
func GetBlobStoreFromContext(ctx context.Context) blobc.ObjectStore {
	if mgr := GetManagerFromContext(ctx); mgr != nil {
		return mgr.Blob
	}

	return nil
}

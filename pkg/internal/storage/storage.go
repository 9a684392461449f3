// Package storage 聚合持久化资源：数据库、物理 blob 存储、消息队列与键值存储.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	blobStore := mgr.GetBlobStore()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/blobvault/pkg/configs"
	blobc "github.com/yeisme/blobvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/blobvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/blobvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/blobvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/blobvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	Blob blobc.ObjectStore
	KV   *kvc.Client
	MQ   *mqc.Client // MQ 未启用时为 nil
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx)
		if e != nil {
			err = e
			return
		}

		m.DB = dbi

		// 物理 blob 存储
		store, e := blobc.New(ctx, cfg)
		if e != nil {
			err = e
			return
		}

		m.Blob = store

		// KV
		kvi, e := kvc.NewKVClient(ctx)
		if e != nil {
			err = e
			return
		}

		m.KV = kvi

		// MQ 可选
		if cfg.MQ.Enabled {
			mqi, e := mqc.New(ctx)
			if e != nil {
				err = e
				return
			}

			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// NewManager 用现成的组件构造 Manager，测试用.
func NewManager(db *dbc.Client, store blobc.ObjectStore, kvCli *kvc.Client, mqCli *mqc.Client) *Manager {
	return &Manager{DB: db, Blob: store, KV: kvCli, MQ: mqCli}
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetBlobStore 获取物理对象存储.
func (m *Manager) GetBlobStore() blobc.ObjectStore {
	return m.Blob
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用时返回 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

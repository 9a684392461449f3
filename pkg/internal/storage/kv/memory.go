package kv

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yeisme/blobvault/pkg/configs"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，TTL 通过值包装器实现惰性过期.
type MemoryKV struct {
	data sync.Map // 并发安全的 map
	mu   sync.Mutex
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(ctx context.Context, config *configs.KVConfig) (KVStore, error) {
	// 内存实现不需要特殊配置
	return &MemoryKV{}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, fmt.Errorf("key not found: %s", key)
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid value type for key: %s", key)
	}

	v, expired, _, err := decodeWithTTL(data, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.data.Delete(key)

		return nil, fmt.Errorf("key not found: %s", key)
	}

	// 返回副本
	result := make([]byte, len(v))
	copy(result, v)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, wrapped, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if !wrapped {
		// 复制值
		data := make([]byte, len(value))
		copy(data, value)
		encoded = data
	}

	m.data.Store(key, encoded)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Incr 原子自增计数器，首次创建时应用 ttl.
func (m *MemoryKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64

	if raw, err := m.Get(ctx, key); err == nil {
		n, parseErr := strconv.ParseInt(string(raw), 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("counter value corrupted for key %s: %w", key, parseErr)
		}

		current = n

		// 已存在的计数器保留原过期时间：直接覆盖值部分
		next := current + 1
		if err := m.setKeepingExpiry(key, next); err != nil {
			return 0, err
		}

		return next, nil
	}

	// 窗口首个请求，创建计数器并挂上 ttl
	if err := m.Set(ctx, key, []byte("1"), ttl); err != nil {
		return 0, err
	}

	return 1, nil
}

// setKeepingExpiry 更新已包装值的计数部分，保留原过期时刻.
func (m *MemoryKV) setKeepingExpiry(key string, n int64) error {
	value, exists := m.data.Load(key)
	if !exists {
		return fmt.Errorf("key not found: %s", key)
	}

	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid value type for key: %s", key)
	}

	encoded, err := reencodeValue(data, []byte(strconv.FormatInt(n, 10)))
	if err != nil {
		return err
	}

	m.data.Store(key, encoded)

	return nil
}

// Keys 获取所有键.
func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	m.data.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true // 继续遍历
		}

		if pattern == "" || k == pattern {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}

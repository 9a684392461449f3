package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yeisme/blobvault/pkg/cache"
)

// quotaStats 测试用的配额统计结构体.
type quotaStats struct {
	OwnerID   string `json:"owner_id"`
	UsedBytes int64  `json:"used_bytes"`
	FileCount int64  `json:"file_count"`
}

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	data     map[string][]byte
	counters map[string]int64
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data:     make(map[string][]byte),
		counters: make(map[string]int64),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, fmt.Errorf("key not found")
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *mockKVStore) Close() error {
	return nil
}

func TestNewCache(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)

	if c == nil {
		t.Fatal("NewCache returned nil")
	}
}

func TestCacheGetSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	// 获取不存在的键
	if _, err := cache.Get[quotaStats](ctx, c, "quota:nobody"); err == nil {
		t.Error("expected error for nonexistent key")
	}

	stats := quotaStats{OwnerID: "alice", UsedBytes: 4096, FileCount: 3}

	if err := cache.Set(ctx, c, "quota:alice", stats, 0); err != nil {
		t.Fatalf("set cache: %v", err)
	}

	got, err := cache.Get[quotaStats](ctx, c, "quota:alice")
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}

	if got != stats {
		t.Errorf("got %+v, want %+v", got, stats)
	}
}

func TestCacheDelete(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	stats := quotaStats{OwnerID: "bob", UsedBytes: 1}

	if err := cache.Set(ctx, c, "quota:bob", stats, 0); err != nil {
		t.Fatalf("set cache: %v", err)
	}

	exists, err := c.Exists(ctx, "quota:bob")
	if err != nil || !exists {
		t.Fatalf("expected key to exist, exists=%v err=%v", exists, err)
	}

	if err := c.Delete(ctx, "quota:bob"); err != nil {
		t.Fatalf("delete cache: %v", err)
	}

	exists, err = c.Exists(ctx, "quota:bob")
	if err != nil {
		t.Fatalf("check existence: %v", err)
	}

	if exists {
		t.Error("key should be gone after delete")
	}
}

func TestCacheGetOrSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	calls := 0
	getter := func() (quotaStats, error) {
		calls++
		return quotaStats{OwnerID: "carol", UsedBytes: 512, FileCount: 1}, nil
	}

	got, err := cache.GetOrSet(ctx, c, "quota:carol", getter, time.Minute)
	if err != nil {
		t.Fatalf("first GetOrSet: %v", err)
	}

	if got.OwnerID != "carol" || calls != 1 {
		t.Fatalf("got %+v calls=%d", got, calls)
	}

	// 第二次命中缓存，getter 不应再执行
	got, err = cache.GetOrSet(ctx, c, "quota:carol", getter, time.Minute)
	if err != nil {
		t.Fatalf("second GetOrSet: %v", err)
	}

	if got.OwnerID != "carol" || calls != 1 {
		t.Errorf("expected cache hit, got %+v calls=%d", got, calls)
	}
}

func TestCacheGetOrSetGetterError(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	wantErr := errors.New("db unavailable")
	getter := func() (quotaStats, error) { return quotaStats{}, wantErr }

	if _, err := cache.GetOrSet(ctx, c, "quota:down", getter, time.Minute); !errors.Is(err, wantErr) {
		t.Errorf("expected getter error, got %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	for i := range 5 {
		key := fmt.Sprintf("quota:user%d", i)
		if err := cache.Set(ctx, c, key, quotaStats{OwnerID: key}, 0); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear cache: %v", err)
	}

	if len(mockStore.data) != 0 {
		t.Errorf("expected empty store, %d keys left", len(mockStore.data))
	}
}

func BenchmarkCacheSet(b *testing.B) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()
	stats := quotaStats{OwnerID: "bench", UsedBytes: 1024, FileCount: 8}

	for i := 0; b.Loop(); i++ {
		_ = cache.Set(ctx, c, fmt.Sprintf("quota:%d", i), stats, 0)
	}
}

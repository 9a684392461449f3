package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
)

func newTestBlobStore(t *testing.T) *blobStore {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return newBlobStore(gdb, blob.NewMemoryStore())
}

// 行缺失必须返回可识别的哨兵错误，上传的重试循环靠它判定要不要重新解析 blob.
func TestIncrementRefMissingRow(t *testing.T) {
	bs := newTestBlobStore(t)

	err := bs.incrementRef(bs.db, strings.Repeat("ab", 32))
	if !errors.Is(err, errBlobRowMissing) {
		t.Fatalf("err = %v, want errBlobRowMissing", err)
	}
}

// 同一纳秒内的多次调用也不能撞出相同 ID，文件记录主键没有二次机会.
func TestNewFileIDUniqueUnderBurst(t *testing.T) {
	const (
		workers = 8
		perG    = 2048
	)

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, workers*perG)
		wg   sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ids := make([]string, 0, perG)
			for range perG {
				ids = append(ids, newFileID())
			}

			mu.Lock()
			defer mu.Unlock()

			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate file id %s", id)
				}

				seen[id] = true
			}
		}()
	}

	wg.Wait()

	if len(seen) != workers*perG {
		t.Errorf("unique ids = %d, want %d", len(seen), workers*perG)
	}
}

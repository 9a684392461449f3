package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	nlog "github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
)

// blobConflictRetries 唯一索引冲突后的重查次数，超过则认为存储层异常.
const blobConflictRetries = 3

// errBlobRowMissing 表示引用加一时 blob 行已不存在：
// 解析命中的行可能在提交事务前被末次引用的删除（或配额回滚清孤儿）带走，
// 上传方据此重新走一遍 blob 解析.
var errBlobRowMissing = errors.New("blob row missing")

// blobStore 管理物理 blob 的去重存取与引用计数。
// 去重正确性由三层保证：进程内 singleflight 合并同哈希并发上传、
// content_hash 唯一索引挡住跨进程竞态、冲突后有界重查收敛到已有行.
type blobStore struct {
	db    *gorm.DB
	store blob.ObjectStore
	sf    singleflight.Group
}

func newBlobStore(db *gorm.DB, store blob.ObjectStore) *blobStore {
	return &blobStore{db: db, store: store}
}

type getOrCreateResult struct {
	blob    *model.Blob
	created bool
}

// getOrCreate 返回该哈希对应的 blob 行，不存在则写入物理对象并插入 0 引用的新行。
// 新行的引用在上传事务里才加一，事务失败由调用方负责清理孤儿.
func (s *blobStore) getOrCreate(ctx context.Context, payload *hashedPayload, contentType string) (*model.Blob, bool, error) {
	v, err, _ := s.sf.Do(payload.Hash(), func() (any, error) {
		return s.getOrCreateOnce(ctx, payload, contentType)
	})
	if err != nil {
		return nil, false, err
	}

	res, ok := v.(*getOrCreateResult)
	if !ok {
		return nil, false, fmt.Errorf("unexpected singleflight result type %T", v)
	}

	return res.blob, res.created, nil
}

func (s *blobStore) getOrCreateOnce(ctx context.Context, payload *hashedPayload, contentType string) (*getOrCreateResult, error) {
	hash := payload.Hash()

	for range blobConflictRetries {
		var existing model.Blob

		err := s.db.WithContext(ctx).Where("content_hash = ?", hash).First(&existing).Error
		if err == nil {
			return &getOrCreateResult{blob: &existing, created: false}, nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup blob %s: %w", hash, err)
		}

		// 先写对象再写行：行存在即内容可读的不变式不能反过来。
		// 对象写入按内容寻址是幂等的，重复写同一个键无害
		reader, err := payload.Open()
		if err != nil {
			return nil, err
		}

		key := blob.ObjectKey(hash)
		if err := s.store.Put(ctx, key, reader, payload.Size(), contentType); err != nil {
			return nil, fmt.Errorf("store object %s: %w", key, err)
		}

		created := model.Blob{
			ContentHash:    hash,
			ObjectKey:      key,
			Size:           payload.Size(),
			ReferenceCount: 0,
			ContentType:    contentType,
		}

		err = s.db.WithContext(ctx).Create(&created).Error
		if err == nil {
			return &getOrCreateResult{blob: &created, created: true}, nil
		}

		// 并发插入同哈希，回头重查已有行
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}

		return nil, fmt.Errorf("insert blob %s: %w", hash, err)
	}

	return nil, fmt.Errorf("blob %s: duplicate-key conflict persisted after %d retries", hash, blobConflictRetries)
}

// incrementRef 在事务里给 blob 引用计数加一.
func (s *blobStore) incrementRef(tx *gorm.DB, hash string) error {
	res := tx.Model(&model.Blob{}).
		Where("content_hash = ?", hash).
		Update("reference_count", gorm.Expr("reference_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("increment ref %s: %w", hash, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("increment ref %s: %w", hash, errBlobRowMissing)
	}

	return nil
}

// decrementRef 在事务里给引用计数减一，归零时连行一起删。
// 返回值指示行是否被删除（物理对象删除由调用方在提交后执行）。
// 对缺失或已为 0 的 blob 减引用是记录过异常的 no-op，不让删除失败.
func (s *blobStore) decrementRef(tx *gorm.DB, hash string) (removed bool, err error) {
	res := tx.Model(&model.Blob{}).
		Where("content_hash = ? AND reference_count > 0", hash).
		Update("reference_count", gorm.Expr("reference_count - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("decrement ref %s: %w", hash, res.Error)
	}

	if res.RowsAffected == 0 {
		nlog.Logger().Warn().Str("content_hash", hash).
			Msg("decrement on missing or zero-ref blob, treated as no-op")
		metrics.IntegrityAnomalyCounter.WithLabelValues("refcount_underflow").Inc()

		return false, nil
	}

	del := tx.Where("content_hash = ? AND reference_count = 0", hash).Delete(&model.Blob{})
	if del.Error != nil {
		return false, fmt.Errorf("delete zero-ref blob %s: %w", hash, del.Error)
	}

	return del.RowsAffected > 0, nil
}

// removeOrphan 配额回滚路径：删除刚创建、尚无引用的 blob 行并移除物理对象.
func (s *blobStore) removeOrphan(ctx context.Context, hash string) {
	res := s.db.WithContext(ctx).
		Where("content_hash = ? AND reference_count = 0", hash).
		Delete(&model.Blob{})
	if res.Error != nil {
		nlog.Logger().Error().Err(res.Error).Str("content_hash", hash).Msg("remove orphan blob row failed")
		metrics.IntegrityAnomalyCounter.WithLabelValues("orphan_row").Inc()

		return
	}

	// 已被并发上传引用走了，留着
	if res.RowsAffected == 0 {
		return
	}

	s.removeObject(ctx, hash)
}

// removeObject 尽力删除物理对象，失败记异常但不回传错误，留给后台清理.
func (s *blobStore) removeObject(ctx context.Context, hash string) bool {
	key := blob.ObjectKey(hash)
	if err := s.store.Remove(ctx, key); err != nil && !errors.Is(err, blob.ErrObjectNotFound) {
		nlog.Logger().Error().Err(err).Str("object_key", key).Msg("remove blob object failed")
		metrics.IntegrityAnomalyCounter.WithLabelValues("object_remove").Inc()

		return false
	}

	return true
}

package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/service"
	"github.com/yeisme/blobvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/blobvault/pkg/internal/storage/db"
	"github.com/yeisme/blobvault/pkg/internal/types"
)

// testVault 聚合一套内存后端的被测服务.
type testVault struct {
	svc   *service.VaultService
	db    *gorm.DB
	store *blob.MemoryStore
	cfg   *configs.AppConfig
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// 唯一约束冲突要能翻译成 gorm.ErrDuplicatedKey，去重依赖这一点
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 单连接串行化事务，避免内存 sqlite 的并发锁冲突
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := blob.NewMemoryStore()

	cfg := &configs.AppConfig{
		Vault: configs.VaultConfig{
			MaxFileSizeBytes:  configs.DefaultMaxFileSizeBytes,
			DefaultQuotaBytes: configs.DefaultQuotaBytes,
			MaxFilenameLength: configs.DefaultMaxFilenameLength,
			MaxMimeTypeLength: configs.DefaultMaxMimeTypeLength,
			BlockedMimeTypes:  configs.DefaultBlockedMimeTypes,
			DefaultPageSize:   configs.DefaultPageSize,
			MaxPageSize:       configs.DefaultMaxPageSize,
		},
	}

	return &testVault{
		svc:   service.NewVaultServiceWith(&dbc.Client{DB: gdb}, store, nil, cfg),
		db:    gdb,
		store: store,
		cfg:   cfg,
	}
}

func (v *testVault) upload(t *testing.T, owner, name, mime, content string) {
	t.Helper()

	if _, err := v.svc.Upload(context.Background(), owner, name, mime, strings.NewReader(content)); err != nil {
		t.Fatalf("upload %s/%s: %v", owner, name, err)
	}
}

func (v *testVault) blobCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	if err := v.db.Model(&model.Blob{}).Count(&n).Error; err != nil {
		t.Fatalf("count blobs: %v", err)
	}

	return n
}

func TestUploadAndDownload(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	content := "the quick brown fox"

	resp, err := v.svc.Upload(ctx, "alice", "fox.txt", "text/plain", strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if resp.Deduplicated {
		t.Error("first upload must not be a dedup hit")
	}

	if resp.File.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", resp.File.Size, len(content))
	}

	if len(resp.File.ContentHash) != 64 {
		t.Errorf("content hash = %q, want 64 hex chars", resp.File.ContentHash)
	}

	if resp.QuotaUsedBytes != int64(len(content)) {
		t.Errorf("quota used = %d, want %d", resp.QuotaUsedBytes, len(content))
	}

	info, rc, err := v.svc.Download(ctx, "alice", resp.File.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}

	if string(got) != content {
		t.Errorf("downloaded %q, want %q", got, content)
	}

	if info.FileName != "fox.txt" {
		t.Errorf("file name = %q", info.FileName)
	}
}

func TestUploadDeduplicates(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	content := "shared bytes"

	first, err := v.svc.Upload(ctx, "alice", "a.bin", "application/octet-stream", strings.NewReader(content))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	// 另一个用户、另一个文件名，内容相同
	second, err := v.svc.Upload(ctx, "bob", "b.bin", "application/octet-stream", strings.NewReader(content))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if first.Deduplicated || !second.Deduplicated {
		t.Errorf("dedup flags = %v/%v, want false/true", first.Deduplicated, second.Deduplicated)
	}

	if first.File.ContentHash != second.File.ContentHash {
		t.Error("same content must share a hash")
	}

	if first.File.ID == second.File.ID {
		t.Error("file records must have distinct ids")
	}

	if n := v.blobCount(t); n != 1 {
		t.Errorf("blob rows = %d, want 1", n)
	}

	if n := v.store.Len(); n != 1 {
		t.Errorf("stored objects = %d, want 1", n)
	}

	var b model.Blob
	if err := v.db.Where("content_hash = ?", first.File.ContentHash).First(&b).Error; err != nil {
		t.Fatalf("read blob: %v", err)
	}

	if b.ReferenceCount != 2 {
		t.Errorf("reference count = %d, want 2", b.ReferenceCount)
	}

	// 去重命中依然按完整逻辑大小计费
	if second.QuotaUsedBytes != int64(len(content)) {
		t.Errorf("bob quota used = %d, want %d", second.QuotaUsedBytes, len(content))
	}
}

func TestUploadQuotaRejection(t *testing.T) {
	v := newTestVault(t)
	v.cfg.Vault.DefaultQuotaBytes = 10

	// 重建服务让新的默认额度生效
	v.svc = service.NewVaultServiceWith(&dbc.Client{DB: v.db}, v.store, nil, v.cfg)
	ctx := context.Background()

	_, err := v.svc.Upload(ctx, "alice", "big.bin", "application/octet-stream", strings.NewReader("12345678901"))
	if !service.IsQuotaExceeded(err) {
		t.Fatalf("got %v, want quota exceeded", err)
	}

	var qe *service.QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatal("error must carry quota details")
	}

	if qe.RequestedBytes != 11 || qe.LimitBytes != 10 || qe.UsedBytes != 0 {
		t.Errorf("details = requested %d used %d limit %d", qe.RequestedBytes, qe.UsedBytes, qe.LimitBytes)
	}

	// 拒绝不能留下任何痕迹：没有记录、没有 blob 行、没有物理对象
	var files int64
	v.db.Model(&model.FileRecord{}).Count(&files)

	if files != 0 {
		t.Errorf("file rows = %d, want 0", files)
	}

	if n := v.blobCount(t); n != 0 {
		t.Errorf("blob rows = %d, want 0", n)
	}

	if n := v.store.Len(); n != 0 {
		t.Errorf("stored objects = %d, want 0", n)
	}

	// 拒绝后的重试行为一致
	_, err = v.svc.Upload(ctx, "alice", "big.bin", "application/octet-stream", strings.NewReader("12345678901"))
	if !service.IsQuotaExceeded(err) {
		t.Fatalf("retry: got %v, want quota exceeded", err)
	}

	// 额度内的上传不受之前的拒绝影响
	if _, err := v.svc.Upload(ctx, "alice", "ok.bin", "application/octet-stream", strings.NewReader("12345")); err != nil {
		t.Fatalf("small upload after rejection: %v", err)
	}
}

func TestQuotaRejectionKeepsSharedBlob(t *testing.T) {
	v := newTestVault(t)
	v.cfg.Vault.DefaultQuotaBytes = 16
	v.svc = service.NewVaultServiceWith(&dbc.Client{DB: v.db}, v.store, nil, v.cfg)
	ctx := context.Background()
	content := "twelve bytes" // 12 字节

	if _, err := v.svc.Upload(ctx, "alice", "a.txt", "text/plain", strings.NewReader(content)); err != nil {
		t.Fatalf("alice upload: %v", err)
	}

	// bob 已用 8 字节，同样内容的上传会超额，但共享 blob 不能被连带删除
	if _, err := v.svc.Upload(ctx, "bob", "pad.txt", "text/plain", strings.NewReader("12345678")); err != nil {
		t.Fatalf("bob pad upload: %v", err)
	}

	_, err := v.svc.Upload(ctx, "bob", "b.txt", "text/plain", strings.NewReader(content))
	if !service.IsQuotaExceeded(err) {
		t.Fatalf("got %v, want quota exceeded", err)
	}

	if n := v.blobCount(t); n != 2 {
		t.Errorf("blob rows = %d, want 2", n)
	}

	if n := v.store.Len(); n != 2 {
		t.Errorf("stored objects = %d, want 2", n)
	}

	// alice 的文件完好
	list, err := v.svc.List(ctx, "alice", &types.ListFilesRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if list.Total != 1 {
		t.Errorf("alice files = %d, want 1", list.Total)
	}
}

func TestDeleteReferenceCounting(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	content := "refcounted content"

	first, err := v.svc.Upload(ctx, "alice", "one.txt", "text/plain", strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload one: %v", err)
	}

	second, err := v.svc.Upload(ctx, "alice", "two.txt", "text/plain", strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload two: %v", err)
	}

	// 第一次删除：还有引用，物理对象保留
	del, err := v.svc.Delete(ctx, "alice", first.File.ID)
	if err != nil {
		t.Fatalf("delete first: %v", err)
	}

	if del.BlobRemoved {
		t.Error("blob must survive while another reference exists")
	}

	if del.ReleasedBytes != int64(len(content)) {
		t.Errorf("released = %d, want %d", del.ReleasedBytes, len(content))
	}

	if n := v.store.Len(); n != 1 {
		t.Errorf("stored objects = %d, want 1", n)
	}

	// 第二次删除：引用归零，物理对象回收
	del, err = v.svc.Delete(ctx, "alice", second.File.ID)
	if err != nil {
		t.Fatalf("delete second: %v", err)
	}

	if !del.BlobRemoved {
		t.Error("last delete must remove the blob")
	}

	if n := v.blobCount(t); n != 0 {
		t.Errorf("blob rows = %d, want 0", n)
	}

	if n := v.store.Len(); n != 0 {
		t.Errorf("stored objects = %d, want 0", n)
	}

	// 配额全部退回
	stats, err := v.svc.QuotaStats(ctx, "alice")
	if err != nil {
		t.Fatalf("quota stats: %v", err)
	}

	if stats.UsedBytes != 0 {
		t.Errorf("used bytes = %d, want 0", stats.UsedBytes)
	}
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	resp, err := v.svc.Upload(ctx, "alice", "private.txt", "text/plain", strings.NewReader("secret"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := v.svc.Delete(ctx, "mallory", resp.File.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("cross-owner delete: got %v, want ErrNotFound", err)
	}

	if _, _, err := v.svc.Download(ctx, "mallory", resp.File.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("cross-owner download: got %v, want ErrNotFound", err)
	}

	// 记录仍然在且属主可访问
	if _, err := v.svc.GetFile(ctx, "alice", resp.File.ID); err != nil {
		t.Errorf("owner access after failed attack: %v", err)
	}
}

func TestDeleteUnknownFile(t *testing.T) {
	v := newTestVault(t)

	if _, err := v.svc.Delete(context.Background(), "alice", "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUploadEmptyRejected(t *testing.T) {
	v := newTestVault(t)

	_, err := v.svc.Upload(context.Background(), "alice", "empty.txt", "text/plain", bytes.NewReader(nil))
	if !service.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestConcurrentIdenticalUploads(t *testing.T) {
	v := newTestVault(t)
	content := "concurrently uploaded bytes"

	const uploaders = 8

	var wg sync.WaitGroup

	errs := make([]error, uploaders)

	for i := range uploaders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			owner := fmt.Sprintf("user-%d", i)
			_, errs[i] = v.svc.Upload(context.Background(), owner, "same.bin", "application/octet-stream",
				strings.NewReader(content))
		}()
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("uploader %d: %v", i, err)
		}
	}

	if n := v.blobCount(t); n != 1 {
		t.Errorf("blob rows = %d, want 1", n)
	}

	if n := v.store.Len(); n != 1 {
		t.Errorf("stored objects = %d, want 1", n)
	}

	var b model.Blob
	if err := v.db.First(&b).Error; err != nil {
		t.Fatalf("read blob: %v", err)
	}

	if b.ReferenceCount != uploaders {
		t.Errorf("reference count = %d, want %d", b.ReferenceCount, uploaders)
	}
}

func TestListFilteringAndPagination(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	v.upload(t, "alice", "notes-january.txt", "text/plain", "january notes")
	v.upload(t, "alice", "notes-february.txt", "text/plain", "february notes!")
	v.upload(t, "alice", "photo.png", "image/png", "not really a png")
	v.upload(t, "bob", "notes-march.txt", "text/plain", "bob notes")

	// 按 MIME 过滤
	list, err := v.svc.List(ctx, "alice", &types.ListFilesRequest{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}

	if list.Total != 2 {
		t.Errorf("text/plain total = %d, want 2", list.Total)
	}

	// 文件名子串过滤，不跨用户
	list, err = v.svc.List(ctx, "alice", &types.ListFilesRequest{Search: "notes"})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}

	if list.Total != 2 {
		t.Errorf("search total = %d, want 2", list.Total)
	}

	// LIKE 通配符按字面处理
	list, err = v.svc.List(ctx, "alice", &types.ListFilesRequest{Search: "%"})
	if err != nil {
		t.Fatalf("list by literal percent: %v", err)
	}

	if list.Total != 0 {
		t.Errorf("literal %% total = %d, want 0", list.Total)
	}

	// 大小区间
	list, err = v.svc.List(ctx, "alice", &types.ListFilesRequest{MinSize: 14})
	if err != nil {
		t.Fatalf("list by size: %v", err)
	}

	if list.Total != 2 {
		t.Errorf("min size total = %d, want 2", list.Total)
	}

	// 分页
	list, err = v.svc.List(ctx, "alice", &types.ListFilesRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}

	if list.Total != 3 || len(list.Files) != 2 {
		t.Errorf("page 1: total %d files %d, want 3/2", list.Total, len(list.Files))
	}

	list, err = v.svc.List(ctx, "alice", &types.ListFilesRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}

	if len(list.Files) != 1 {
		t.Errorf("page 2 files = %d, want 1", len(list.Files))
	}
}

func TestDistinctMimeTypes(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	v.upload(t, "alice", "a.txt", "text/plain", "aaa")
	v.upload(t, "alice", "b.txt", "text/plain", "bbb")
	v.upload(t, "alice", "c.png", "image/png", "ccc")
	v.upload(t, "bob", "d.pdf", "application/pdf", "ddd")

	resp, err := v.svc.DistinctMimeTypes(ctx, "alice")
	if err != nil {
		t.Fatalf("distinct mime types: %v", err)
	}

	want := []string{"image/png", "text/plain"}
	if len(resp.MimeTypes) != len(want) {
		t.Fatalf("mime types = %v, want %v", resp.MimeTypes, want)
	}

	for i := range want {
		if resp.MimeTypes[i] != want[i] {
			t.Errorf("mime types = %v, want %v", resp.MimeTypes, want)
			break
		}
	}
}

func TestQuotaStatsDedupSaved(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	content := "dedup accounting bytes"

	v.upload(t, "alice", "copy1.bin", "application/octet-stream", content)
	v.upload(t, "alice", "copy2.bin", "application/octet-stream", content)

	stats, err := v.svc.QuotaStats(ctx, "alice")
	if err != nil {
		t.Fatalf("quota stats: %v", err)
	}

	logical := int64(2 * len(content))
	if stats.UsedBytes != logical {
		t.Errorf("used = %d, want %d", stats.UsedBytes, logical)
	}

	if stats.FileCount != 2 {
		t.Errorf("file count = %d, want 2", stats.FileCount)
	}

	if stats.DedupSavedBytes != int64(len(content)) {
		t.Errorf("dedup saved = %d, want %d", stats.DedupSavedBytes, len(content))
	}

	if stats.RemainingBytes != stats.LimitBytes-stats.UsedBytes {
		t.Errorf("remaining = %d", stats.RemainingBytes)
	}
}

func TestQuotaStatsFreshAccount(t *testing.T) {
	v := newTestVault(t)

	stats, err := v.svc.QuotaStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("quota stats: %v", err)
	}

	if stats.UsedBytes != 0 || stats.LimitBytes != configs.DefaultQuotaBytes {
		t.Errorf("fresh account stats = used %d limit %d", stats.UsedBytes, stats.LimitBytes)
	}
}

func TestStatsByType(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	v.upload(t, "alice", "a.txt", "text/plain", "12345")
	v.upload(t, "alice", "b.txt", "text/plain", "678")
	v.upload(t, "alice", "c.png", "image/png", "x")

	stats, err := v.svc.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if len(stats.ByType) != 2 {
		t.Fatalf("by type entries = %d, want 2", len(stats.ByType))
	}

	// 按字节数倒序
	if stats.ByType[0].ContentType != "text/plain" || stats.ByType[0].Count != 2 || stats.ByType[0].Size != 8 {
		t.Errorf("top entry = %+v", stats.ByType[0])
	}
}

func TestDownloadMissingObjectIsNotFound(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	resp, err := v.svc.Upload(ctx, "alice", "gone.txt", "text/plain", strings.NewReader("vanishing content"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	// 模拟后端对象丢失：目录记录还在，物理对象没了
	if err := v.store.Remove(ctx, blob.ObjectKey(resp.File.ContentHash)); err != nil {
		t.Fatalf("remove object: %v", err)
	}

	_, _, err = v.svc.Download(ctx, "alice", resp.File.ID)
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("download error = %v, want ErrNotFound", err)
	}
}

func TestUploadRacesLastReferenceDelete(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	content := "contended content"

	// 去重命中的 blob 行可能在提交前被末次引用的删除带走，上传必须重新解析而不是报错
	for round := range 25 {
		seed, err := v.svc.Upload(ctx, "alice", "seed.txt", "text/plain", strings.NewReader(content))
		if err != nil {
			t.Fatalf("round %d seed upload: %v", round, err)
		}

		var (
			wg        sync.WaitGroup
			uploadErr error
			resp      *types.UploadFileResponse
		)

		wg.Add(2)

		go func() {
			defer wg.Done()

			resp, uploadErr = v.svc.Upload(ctx, "bob", "copy.txt", "text/plain", strings.NewReader(content))
		}()

		go func() {
			defer wg.Done()

			if _, err := v.svc.Delete(ctx, "alice", seed.File.ID); err != nil {
				t.Errorf("round %d delete: %v", round, err)
			}
		}()

		wg.Wait()

		if uploadErr != nil {
			t.Fatalf("round %d concurrent upload: %v", round, uploadErr)
		}

		if _, err := v.svc.Delete(ctx, "bob", resp.File.ID); err != nil {
			t.Fatalf("round %d cleanup: %v", round, err)
		}
	}

	if n := v.blobCount(t); n != 0 {
		t.Errorf("blob rows = %d, want 0", n)
	}

	if n := v.store.Len(); n != 0 {
		t.Errorf("stored objects = %d, want 0", n)
	}
}

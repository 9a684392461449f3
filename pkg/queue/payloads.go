package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// BlobRef 标识一个物理内容寻址对象.
type BlobRef struct {
	ContentHash string `json:"content_hash"`          // SHA-256 十六进制摘要
	ObjectKey   string `json:"object_key"`            // 后端对象键（sha256/aa/bb/...）
	Size        int64  `json:"size,omitempty"`        // 字节数
	RefCount    int64  `json:"ref_count,omitempty"`   // 事件发生后的引用数
	ContentType string `json:"content_type,omitempty"`
}

// FileRef 标识一条用户文件记录.
type FileRef struct {
	FileID      string `json:"file_id"`
	OwnerID     string `json:"owner_id"`
	FileName    string `json:"file_name,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// FileUploadedPayload 文件记录已创建.
type FileUploadedPayload struct {
	File FileRef `json:"file"`
	// Deduplicated 为 true 时本次上传复用了已有物理对象.
	Deduplicated bool `json:"deduplicated,omitempty"`
	// QuotaUsedBytes 上传后的账户已用字节数.
	QuotaUsedBytes int64 `json:"quota_used_bytes,omitempty"`
}

// FileDeletedPayload 文件记录已删除.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// ReleasedBytes 本次删除释放的配额字节数.
	ReleasedBytes int64 `json:"released_bytes,omitempty"`
	// BlobRemoved 为 true 时物理对象随最后一个引用一并移除.
	BlobRemoved bool `json:"blob_removed,omitempty"`
}

// BlobCreatedPayload 新物理对象首次写入.
type BlobCreatedPayload struct {
	Blob BlobRef `json:"blob"`
}

// BlobReleasedPayload 物理对象引用归零并被移除.
type BlobReleasedPayload struct {
	Blob BlobRef `json:"blob"`
	// ObjectRemoveFailed 为 true 时逻辑删除成功但物理对象移除失败，等待后台清理.
	ObjectRemoveFailed bool `json:"object_remove_failed,omitempty"`
}

// QuotaExceededPayload 上传因配额不足被拒绝.
type QuotaExceededPayload struct {
	OwnerID        string `json:"owner_id"`
	RequestedBytes int64  `json:"requested_bytes"`
	UsedBytes      int64  `json:"used_bytes"`
	LimitBytes     int64  `json:"limit_bytes"`
	FileName       string `json:"file_name,omitempty"`
}

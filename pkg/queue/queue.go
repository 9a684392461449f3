// Package queue 管理消息队列，用于向下游广播文件与 blob 的生命周期事件.
//
// 概览
//   - 采用发布/订阅模型，解耦"上传、去重、回收、审计"等环节
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic），跨语言易解析
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "bv.file.uploaded",
//	    "trace_id": "optional-trace-id",
//	    "producer": "blobvault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// Go 端：发布/订阅示例
//
//	// 1) 构造负载
//	payload := queue.FileUploadedPayload{
//	  File: queue.FileRef{
//	    FileID: "01J...",
//	    OwnerID: "user-1",
//	    FileName: "report.pdf",
//	    ContentHash: "ab12...",
//	    Size: 42,
//	  },
//	  Deduplicated: true,
//	}
//
//	// 2) 构造 watermill 消息（可选设置 TraceID/Producer/幂等键）
//	msg, _ := queue.NewWatermillMessage(
//	  queue.TopicFileUploaded, payload,
//	  queue.WithTraceID("trace-xyz"),
//	  queue.WithProducer("blobvault"),
//	)
//
//	// 3) 通过 MQ 客户端发布
//	//   client, _ := mq.New(ctx)
//	//   _ = client.Publish(ctx, queue.TopicFileUploaded, msg)
//
//	// 4) 订阅（简化展示）
//	//   ch, _ := client.Subscribe(ctx, queue.TopicFileUploaded)
//	//   for m := range ch {
//	//       env, _ := queue.ParseWatermillMessage[queue.FileUploadedPayload](m)
//	//       // 使用 env.Header / env.Payload ...
//	//       m.Ack()
//	//   }
//
// 注意事项
//  1. occurred_at 为 UTC，RFC3339 格式
//  2. version 便于后向兼容，建议消费者忽略未知字段
//  3. Header.topic 与消息中间件的 Subject/Topic 可能重复，意在离线可追踪
//  4. 业务级幂等可通过 WithDedupKey 把消息 ID 设为确定性键
//     （如 owner|content_hash 的哈希），JetStream 的 TrackMsgId 会据此去重
package queue

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewMessageID 生成按时间有序的消息 ID（ULID）.
func NewMessageID() string {
	now := time.Now().UTC()
	entropy := rand.New(rand.NewSource(now.UnixNano()))

	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// DedupMessageID 根据主题与业务键生成确定性消息 ID，
// 同一事件的重发会得到同一 ID，配合 JetStream TrackMsgId 实现幂等.
func DedupMessageID(topic, key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(topic+"|"+key))
}

// msgOptions 控制 watermill 消息构造.
type msgOptions struct {
	headerOpts []func(*EventHeader)
	dedupKey   string
}

// MessageOption 配置消息构造行为.
type MessageOption func(*msgOptions)

// WithHeader 透传事件头选项.
func WithHeader(opts ...func(*EventHeader)) MessageOption {
	return func(o *msgOptions) { o.headerOpts = append(o.headerOpts, opts...) }
}

// WithDedupKey 设置幂等键，消息 ID 变为 topic+key 的确定性哈希.
func WithDedupKey(key string) MessageOption {
	return func(o *msgOptions) { o.dedupKey = key }
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...MessageOption) (*message.Message, error) {
	var o msgOptions
	for _, opt := range opts {
		opt(&o)
	}

	header := NewEventHeader(topic, o.headerOpts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	id := NewMessageID()
	if o.dedupKey != "" {
		id = DedupMessageID(topic, o.dedupKey)
	}

	msg := message.NewMessage(id, data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 抽象发布端，mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishFileUploaded 发布 bv.file.uploaded 事件。
// 上传事务提交后调用，通知下游（审计、统计、索引等）。
func PublishFileUploaded(ctx context.Context, pub Publisher, payload FileUploadedPayload, opts ...MessageOption) error {
	opts = append(opts, WithDedupKey(payload.File.FileID))

	msg, err := NewWatermillMessage(TopicFileUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileUploaded, msg)
}

// PublishFileDeleted 发布 bv.file.deleted 事件。
func PublishFileDeleted(ctx context.Context, pub Publisher, payload FileDeletedPayload, opts ...MessageOption) error {
	opts = append(opts, WithDedupKey(payload.File.FileID))

	msg, err := NewWatermillMessage(TopicFileDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileDeleted, msg)
}

// PublishBlobCreated 发布 bv.blob.created 事件。
func PublishBlobCreated(ctx context.Context, pub Publisher, payload BlobCreatedPayload, opts ...MessageOption) error {
	opts = append(opts, WithDedupKey(payload.Blob.ContentHash))

	msg, err := NewWatermillMessage(TopicBlobCreated, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicBlobCreated, msg)
}

// PublishBlobReleased 发布 bv.blob.released 事件。
func PublishBlobReleased(ctx context.Context, pub Publisher, payload BlobReleasedPayload, opts ...MessageOption) error {
	msg, err := NewWatermillMessage(TopicBlobReleased, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicBlobReleased, msg)
}

// PublishQuotaExceeded 发布 bv.quota.exceeded 事件。
func PublishQuotaExceeded(ctx context.Context, pub Publisher, payload QuotaExceededPayload, opts ...MessageOption) error {
	msg, err := NewWatermillMessage(TopicQuotaExceeded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicQuotaExceeded, msg)
}

// ParseFileUploaded 将 Watermill 消息解析为强类型 Envelope（FileUploadedPayload）。
func ParseFileUploaded(msg *message.Message) (Message[FileUploadedPayload], error) {
	return ParseWatermillMessage[FileUploadedPayload](msg)
}

// ParseFileDeleted 将 Watermill 消息解析为强类型 Envelope（FileDeletedPayload）。
func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

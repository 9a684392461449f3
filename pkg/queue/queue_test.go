package queue_test

import (
	"testing"
	"time"

	"github.com/yeisme/blobvault/pkg/queue"
)

func TestNewWatermillMessageMetadata(t *testing.T) {
	payload := queue.FileUploadedPayload{
		File: queue.FileRef{
			FileID:      "01J0000000000000000000TEST",
			OwnerID:     "user-1",
			FileName:    "report.pdf",
			ContentHash: "ab12",
			Size:        42,
		},
		Deduplicated: true,
	}

	msg, err := queue.NewWatermillMessage(
		queue.TopicFileUploaded, payload,
		queue.WithHeader(queue.WithTraceID("trace-xyz"), queue.WithProducer("blobvault")),
	)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if msg.UUID == "" {
		t.Error("message id must not be empty")
	}

	if got := msg.Metadata.Get("topic"); got != queue.TopicFileUploaded {
		t.Errorf("topic metadata = %q", got)
	}

	if got := msg.Metadata.Get("trace_id"); got != "trace-xyz" {
		t.Errorf("trace_id metadata = %q", got)
	}

	env, err := queue.ParseFileUploaded(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Header.Topic != queue.TopicFileUploaded {
		t.Errorf("header topic = %q", env.Header.Topic)
	}

	if env.Header.Version != queue.PayloadVersionV1 {
		t.Errorf("header version = %q", env.Header.Version)
	}

	if time.Since(env.Header.OccurredAt) > time.Minute {
		t.Errorf("occurred_at too old: %v", env.Header.OccurredAt)
	}

	if env.Payload.File.FileID != payload.File.FileID || !env.Payload.Deduplicated {
		t.Errorf("payload round trip mismatch: %+v", env.Payload)
	}
}

func TestDedupMessageIDIsDeterministic(t *testing.T) {
	a := queue.DedupMessageID(queue.TopicBlobCreated, "hash-1")
	b := queue.DedupMessageID(queue.TopicBlobCreated, "hash-1")

	if a != b {
		t.Errorf("same topic+key produced different ids: %s vs %s", a, b)
	}

	if a == queue.DedupMessageID(queue.TopicBlobCreated, "hash-2") {
		t.Error("different keys must not collide on the obvious case")
	}

	if a == queue.DedupMessageID(queue.TopicBlobReleased, "hash-1") {
		t.Error("same key on different topics must differ")
	}

	// 幂等键生效时，两次构造的消息 ID 相同
	m1, err := queue.NewWatermillMessage(queue.TopicBlobCreated,
		queue.BlobCreatedPayload{}, queue.WithDedupKey("hash-1"))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	m2, err := queue.NewWatermillMessage(queue.TopicBlobCreated,
		queue.BlobCreatedPayload{}, queue.WithDedupKey("hash-1"))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if m1.UUID != m2.UUID {
		t.Errorf("dedup key ignored: %s vs %s", m1.UUID, m2.UUID)
	}
}

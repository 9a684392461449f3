package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math/rand"
	"os"
	"testing"
)

func TestHashAndSpoolSmall(t *testing.T) {
	content := []byte("hello blobvault")
	want := sha256.Sum256(content)

	p, err := hashAndSpool(bytes.NewReader(content), 0)
	if err != nil {
		t.Fatalf("hashAndSpool: %v", err)
	}
	defer p.Close()

	if p.Hash() != hex.EncodeToString(want[:]) {
		t.Errorf("hash = %s, want %s", p.Hash(), hex.EncodeToString(want[:]))
	}

	if p.Size() != int64(len(content)) {
		t.Errorf("size = %d, want %d", p.Size(), len(content))
	}

	if p.file != nil {
		t.Error("small payload should stay in memory")
	}

	// Open 可多次调用，每次都从头读
	for range 2 {
		r, err := p.Open()
		if err != nil {
			t.Fatalf("open: %v", err)
		}

		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}

		if !bytes.Equal(got, content) {
			t.Errorf("payload content mismatch")
		}
	}
}

func TestHashAndSpoolLargeSpillsToFile(t *testing.T) {
	content := make([]byte, spoolMemoryThreshold+4096)
	rand.New(rand.NewSource(42)).Read(content)
	want := sha256.Sum256(content)

	p, err := hashAndSpool(bytes.NewReader(content), 0)
	if err != nil {
		t.Fatalf("hashAndSpool: %v", err)
	}

	if p.file == nil {
		t.Fatal("large payload should spill to a temp file")
	}

	if p.Hash() != hex.EncodeToString(want[:]) {
		t.Errorf("hash mismatch for spooled payload")
	}

	r, err := p.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !bytes.Equal(got, content) {
		t.Error("spooled content mismatch")
	}

	name := p.file.Name()
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Errorf("temp file %s not removed after Close", name)
	}
}

func TestHashAndSpoolSizeLimit(t *testing.T) {
	content := make([]byte, 10*hashChunkSize)

	_, err := hashAndSpool(bytes.NewReader(content), int64(len(content))-1)
	if !IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}

	// 限制为 0 表示不限制
	p, err := hashAndSpool(bytes.NewReader(content), 0)
	if err != nil {
		t.Fatalf("unlimited: %v", err)
	}
	defer p.Close()

	if p.Size() != int64(len(content)) {
		t.Errorf("size = %d, want %d", p.Size(), len(content))
	}
}

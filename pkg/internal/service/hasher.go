package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const (
	// hashChunkSize 流式读取的块大小，内存占用与文件大小无关.
	hashChunkSize = 32 * 1024
	// spoolMemoryThreshold 超过该字节数的内容落到临时文件，避免大文件吃内存.
	spoolMemoryThreshold = 1 << 20
)

// hashedPayload 已完成 SHA-256 计算、可重复读取的上传内容。
// 小内容留在内存，大内容在临时文件里，用完必须 Close 以清理临时文件。
type hashedPayload struct {
	hash string
	size int64
	mem  []byte
	file *os.File
}

// Hash 内容的 SHA-256 十六进制摘要（64 字符小写）.
func (p *hashedPayload) Hash() string { return p.hash }

// Size 实际字节数，以流读出的为准而不是客户端声明.
func (p *hashedPayload) Size() int64 { return p.size }

// Open 返回从头开始的读取器，可多次调用.
func (p *hashedPayload) Open() (io.Reader, error) {
	if p.file != nil {
		if _, err := p.file.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStreamNotRewindable, err)
		}

		return p.file, nil
	}

	return bytes.NewReader(p.mem), nil
}

// Close 释放底层临时文件（如有）.
func (p *hashedPayload) Close() error {
	if p.file == nil {
		return nil
	}

	name := p.file.Name()
	if err := p.file.Close(); err != nil {
		return err
	}

	return os.Remove(name)
}

// hashAndSpool 边读边算 SHA-256，同时把内容暂存为可回绕的载体。
// maxSize > 0 时超限立即停止读取并返回 ValidationError，不会把超大内容读完.
func hashAndSpool(r io.Reader, maxSize int64) (*hashedPayload, error) {
	h := sha256.New()
	p := &hashedPayload{}

	buf := make([]byte, hashChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.size += int64(n)
			if maxSize > 0 && p.size > maxSize {
				_ = p.Close()
				return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("size exceeds %d bytes", maxSize)}
			}

			h.Write(buf[:n])

			if err := p.spool(buf[:n]); err != nil {
				_ = p.Close()
				return nil, err
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("read upload stream: %w", err)
		}
	}

	p.hash = hex.EncodeToString(h.Sum(nil))

	return p, nil
}

// spool 追加一块内容，必要时从内存切换到临时文件.
func (p *hashedPayload) spool(chunk []byte) error {
	if p.file == nil && int64(len(p.mem)+len(chunk)) <= spoolMemoryThreshold {
		p.mem = append(p.mem, chunk...)
		return nil
	}

	if p.file == nil {
		f, err := os.CreateTemp("", "blobvault-upload-*")
		if err != nil {
			return fmt.Errorf("create spool file: %w", err)
		}

		if _, err := f.Write(p.mem); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())

			return fmt.Errorf("write spool file: %w", err)
		}

		p.file = f
		p.mem = nil
	}

	if _, err := p.file.Write(chunk); err != nil {
		return fmt.Errorf("write spool file: %w", err)
	}

	return nil
}

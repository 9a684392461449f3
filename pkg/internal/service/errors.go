package service

import (
	"errors"
	"fmt"
)

// ErrNotFound 文件不存在或不属于当前用户，两种情况对外不区分.
var ErrNotFound = errors.New("file not found")

// ErrStreamNotRewindable 上传流无法回绕，属于集成层错误而非用户输入错误.
var ErrStreamNotRewindable = errors.New("upload stream is not rewindable")

// ValidationError 用户输入不合法（空文件、超大、文件名、MIME 被禁等）.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuotaExceededError 配额不足，携带当前用量便于客户端展示.
type QuotaExceededError struct {
	OwnerID        string
	RequestedBytes int64
	UsedBytes      int64
	LimitBytes     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: used %d + requested %d > limit %d",
		e.OwnerID, e.UsedBytes, e.RequestedBytes, e.LimitBytes)
}

// IsValidation 判断是否为输入校验错误.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsQuotaExceeded 判断是否为配额不足.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

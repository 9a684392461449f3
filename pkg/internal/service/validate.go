package service

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yeisme/blobvault/pkg/configs"
)

// windowsReservedNames Windows 保留设备名，作为文件名（含去扩展名后）出现时加前缀规避.
var windowsReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// dangerousFilenameChars 路径分隔符、NTFS 流、通配符、重定向与空白控制字符.
const dangerousFilenameChars = "/\\\x00:*?\"<>|\n\r\t\x0b\x0c"

// sanitizeFileName 把任意用户输入的文件名清洗成文件系统安全的形式。
// 流程对应：NFKD 归一化去非 ASCII、多轮 basename 抗路径穿越、危险字符替换、
// 去前后缀点空格下划线、Windows 保留名加前缀、空名兜底、保留扩展名的长度截断.
func sanitizeFileName(name string, maxLen int) string {
	// NFKD 分解后丢弃非 ASCII，防止 U+2215 之类的同形斜杠绕过
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}

	name = b.String()

	// basename 跑三轮，防御 "..\/..\/" 混排这类一轮处理不完的输入
	for range 3 {
		name = filepath.Base(name)
	}

	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(dangerousFilenameChars, r) {
			return '_'
		}

		if r < 32 || r == 127 {
			return '_'
		}

		return r
	}, name)

	name = strings.Trim(name, ". _")

	ext := filepath.Ext(name)

	base := strings.ToUpper(strings.TrimSuffix(name, ext))
	if slices.Contains(windowsReservedNames, strings.ToUpper(name)) || slices.Contains(windowsReservedNames, base) {
		name = "_" + name
	}

	if name == "" || name == "." || name == ".." {
		name = "unnamed_file"
	}

	if len(name) > maxLen {
		ext := filepath.Ext(name)
		if keep := maxLen - len(ext); keep > 0 {
			name = name[:keep] + ext
		} else {
			name = name[:maxLen]
		}
	}

	return name
}

// validateUpload 校验上传请求的名字与 MIME，返回清洗后的文件名。
// 大小校验在哈希阶段以实际读到的字节数进行，见 hashAndSpool.
func validateUpload(cfg *configs.VaultConfig, fileName, contentType string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", &ValidationError{Field: "file_name", Reason: "must not be empty"}
	}

	if len(fileName) > cfg.MaxFilenameLength {
		return "", &ValidationError{Field: "file_name", Reason: fmt.Sprintf("longer than %d characters", cfg.MaxFilenameLength)}
	}

	if len(contentType) > cfg.MaxMimeTypeLength {
		return "", &ValidationError{Field: "content_type", Reason: fmt.Sprintf("longer than %d characters", cfg.MaxMimeTypeLength)}
	}

	// MIME 参数部分不参与封禁判断，如 text/x-sh; charset=utf-8
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	if slices.Contains(cfg.BlockedMimeTypes, mime) {
		return "", &ValidationError{Field: "content_type", Reason: fmt.Sprintf("type %s is not allowed", mime)}
	}

	return sanitizeFileName(fileName, cfg.MaxFilenameLength), nil
}

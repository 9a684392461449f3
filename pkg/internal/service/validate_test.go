package service

import (
	"strings"
	"testing"

	"github.com/yeisme/blobvault/pkg/configs"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"windows traversal", "..\\..\\boot.ini", "boot.ini"},
		{"dangerous chars", `a:b*c?d"e<f>g|h.txt`, "a_b_c_d_e_f_g_h.txt"},
		{"newline and tab", "bad\nname\t.txt", "bad_name_.txt"},
		{"leading dots", "...hidden.txt", "hidden.txt"},
		{"trailing spaces", "name.txt   ", "name.txt"},
		{"reserved device", "CON", "_CON"},
		{"reserved with ext", "con.txt", "_con.txt"},
		{"reserved lpt", "LPT1.log", "_LPT1.log"},
		{"empty", "", "unnamed_file"},
		{"only dots", "..", "unnamed_file"},
		{"only dangerous", "///", "unnamed_file"},
		// NFKD 将 U+2215 DIVISION SLASH 分解不出 ASCII，直接丢弃
		{"unicode slash", "a∕b.txt", "ab.txt"},
		{"fullwidth letters", "ａｂ.txt", "ab.txt"},
		{"null byte", "a\x00b.txt", "a_b.txt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sanitizeFileName(tc.in, 255)
			if got != tc.want {
				t.Errorf("sanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeFileNameLengthCap(t *testing.T) {
	long := strings.Repeat("a", 300) + ".tar.gz"

	got := sanitizeFileName(long, 64)
	if len(got) != 64 {
		t.Fatalf("len = %d, want 64", len(got))
	}

	if !strings.HasSuffix(got, ".gz") {
		t.Errorf("extension not preserved: %q", got)
	}
}

func testVaultConfig() *configs.VaultConfig {
	return &configs.VaultConfig{
		MaxFileSizeBytes:  configs.DefaultMaxFileSizeBytes,
		DefaultQuotaBytes: configs.DefaultQuotaBytes,
		MaxFilenameLength: configs.DefaultMaxFilenameLength,
		MaxMimeTypeLength: configs.DefaultMaxMimeTypeLength,
		BlockedMimeTypes:  configs.DefaultBlockedMimeTypes,
		DefaultPageSize:   configs.DefaultPageSize,
		MaxPageSize:       configs.DefaultMaxPageSize,
	}
}

func TestValidateUpload(t *testing.T) {
	cfg := testVaultConfig()

	if _, err := validateUpload(cfg, "", "text/plain"); !IsValidation(err) {
		t.Errorf("empty name: got %v, want validation error", err)
	}

	if _, err := validateUpload(cfg, strings.Repeat("a", 256), "text/plain"); !IsValidation(err) {
		t.Errorf("overlong name: got %v, want validation error", err)
	}

	if _, err := validateUpload(cfg, "a.txt", strings.Repeat("x", 101)); !IsValidation(err) {
		t.Errorf("overlong mime: got %v, want validation error", err)
	}

	if _, err := validateUpload(cfg, "run.sh", "application/x-sh"); !IsValidation(err) {
		t.Errorf("blocked mime: got %v, want validation error", err)
	}

	// 参数与大小写不影响封禁判断
	if _, err := validateUpload(cfg, "run.sh", "Application/X-SH; charset=utf-8"); !IsValidation(err) {
		t.Errorf("blocked mime with params: got %v, want validation error", err)
	}

	clean, err := validateUpload(cfg, "../notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("valid upload rejected: %v", err)
	}

	if clean != "notes.txt" {
		t.Errorf("clean name = %q, want notes.txt", clean)
	}
}

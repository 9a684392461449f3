package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/middleware"
)

func newAuthEngine(conf configs.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.AuthMiddleware(conf))
	e.GET("/api/v1/files", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetUserID(c))
	})
	e.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return e
}

func TestAuthMiddlewareAcceptsValidUser(t *testing.T) {
	e := newAuthEngine(configs.AuthConfig{Enabled: true, Header: "UserId", MaxUserIDLength: 64})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("UserId", "alice-01@example.com")

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if w.Body.String() != "alice-01@example.com" {
		t.Errorf("user id = %q", w.Body.String())
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	e := newAuthEngine(configs.AuthConfig{Enabled: true, Header: "UserId", MaxUserIDLength: 8})

	cases := []struct {
		name string
		id   string
	}{
		{"missing header", ""},
		{"too long", "aaaaaaaaa"},
		{"path traversal", "../admin"},
		{"whitespace", "a b"},
		{"slash", "a/b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
			if tc.id != "" {
				req.Header.Set("UserId", tc.id)
			}

			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	e := newAuthEngine(configs.AuthConfig{
		Enabled:         true,
		Header:          "UserId",
		MaxUserIDLength: 64,
		SkipPaths:       []string{"/api/v1/health"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without auth header", w.Code)
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	e := newAuthEngine(configs.AuthConfig{Enabled: false})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when auth disabled", w.Code)
	}
}

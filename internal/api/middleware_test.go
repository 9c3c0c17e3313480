package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newMiddlewareRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ZerologLogger())
	handlers = append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/x", handlers...)
	return r
}

func TestCORSAllowList(t *testing.T) {
	r := newMiddlewareRouter(CORS([]string{"https://app.example.org"}))

	cases := []struct {
		origin string
		want   string
	}{
		{"https://app.example.org", "https://app.example.org"},
		{"https://evil.example.org", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Origin", tc.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.origin, w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
			t.Fatalf("%s: expected allow origin %q, got %q", tc.origin, tc.want, got)
		}
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := newMiddlewareRouter(RateLimit(0))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	r := newMiddlewareRouter(RateLimit(2))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200, 200, 429; got %v", codes)
	}
}

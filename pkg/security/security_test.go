package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsListedOriginOnly(t *testing.T) {
	r := newRouter(CORS([]string{"http://ok.example/"}))

	w := get(r, "Origin", "http://ok.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ok.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", w.Header().Get("Vary"))
	}

	w = get(r, "Origin", "http://evil.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unlisted origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Fatalf("expected no allow-methods for unlisted origin, got %q", got)
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRouter(NewRateLimiter(ctx, 2, time.Hour).Middleware(ClientIP))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	byHeader := func(c *gin.Context) string { return c.GetHeader("X-User") }
	r := newRouter(NewRateLimiter(ctx, 1, time.Hour).Middleware(byHeader))

	if w := get(r, "X-User", "a"); w.Code != http.StatusOK {
		t.Fatalf("first request for a: %d", w.Code)
	}
	if w := get(r, "X-User", "a"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request for a: %d", w.Code)
	}
	if w := get(r, "X-User", "b"); w.Code != http.StatusOK {
		t.Fatalf("b must have its own bucket, got %d", w.Code)
	}
}

func TestRateLimiterSweepDropsIdleBuckets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewRateLimiter(ctx, 1, time.Minute)

	l.Allow("idle")
	l.sweep(time.Now().Add(2 * time.Minute))
	if len(l.buckets) != 1 {
		t.Fatalf("bucket swept too early")
	}
	l.sweep(time.Now().Add(time.Hour))
	if len(l.buckets) != 0 {
		t.Fatalf("expected idle bucket removed, %d left", len(l.buckets))
	}
	if !l.Allow("idle") {
		t.Fatal("a swept key starts with a full bucket")
	}
}

func TestRateLimiterStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewRateLimiter(ctx, 10, time.Minute)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine still running after cancel")
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func limitedHandler(store RateLimiterStore, policy UploadRateLimitPolicy) http.Handler {
	return UploadRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
}

func TestUploadRateLimitAllowsWithinLimit(t *testing.T) {
	policy := NewUploadRateLimitPolicy("upload", time.Minute, 3, 0)
	handler := limitedHandler(newFakeLimiter(), policy)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201 got %d", i, w.Code)
		}
	}
}

func TestUploadRateLimitBlocksOverIPLimit(t *testing.T) {
	policy := NewUploadRateLimitPolicy("upload", time.Minute, 2, 0)
	handler := limitedHandler(newFakeLimiter(), policy)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last)
	}
}

func TestUploadRateLimitCountsUsersSeparately(t *testing.T) {
	policy := NewUploadRateLimitPolicy("upload", time.Minute, 0, 1)
	limiter := newFakeLimiter()
	handler := limitedHandler(limiter, policy)

	for _, user := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("user %s: expected 201 got %d", user, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-a"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request for user-a to be blocked, got %d", w.Code)
	}
}

func TestUploadRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewUploadRateLimitPolicy("upload", 0, 0, 0)
	handler := limitedHandler(newFakeLimiter(), policy)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
}

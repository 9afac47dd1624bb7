package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeRateLimiter struct {
	counts map[string]int64
}

func newFakeRateLimiter() *fakeRateLimiter {
	return &fakeRateLimiter{counts: map[string]int64{}}
}

func (f *fakeRateLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func postLogin(handler http.Handler, ip, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = ip + ":51000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitBlocksEmailAfterLimit(t *testing.T) {
	store := newFakeRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 100, 3)
	handler := AuthRateLimit(policy, store, middlewareTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		if rec := postLogin(handler, "10.0.0.1", "ana@example.cr"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if rec := postLogin(handler, "10.0.0.1", "ana@example.cr"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}

	// a different account from the same IP is still allowed
	if rec := postLogin(handler, "10.0.0.1", "luis@example.cr"); rec.Code != http.StatusOK {
		t.Fatalf("different email should pass, got %d", rec.Code)
	}
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newFakeRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, store, middlewareTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	postLogin(handler, "10.0.0.9", "a@example.cr")
	postLogin(handler, "10.0.0.9", "b@example.cr")
	if rec := postLogin(handler, "10.0.0.9", "c@example.cr"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for hot IP, got %d", rec.Code)
	}
	if rec := postLogin(handler, "10.0.0.10", "d@example.cr"); rec.Code != http.StatusOK {
		t.Fatalf("other IP should pass, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 0, 0)
	called := false
	handler := AuthRateLimit(policy, newFakeRateLimiter(), middlewareTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	postLogin(handler, "10.0.0.1", "ana@example.cr")
	if !called {
		t.Fatal("disabled policy must not block")
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeIdempotencyStore struct {
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func checkoutHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"code":"FER-1001"}}`))
	})
}

func postCheckout(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, middlewareTestLogger(), time.Hour)(checkoutHandler(&calls))

	first := postCheckout(handler, "key-1", `{"payment_method":"cash"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first call: expected 201, got %d", first.Code)
	}

	second := postCheckout(handler, "key-1", `{"payment_method":"cash"}`)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", second.Body.String(), first.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler must run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, middlewareTestLogger(), time.Hour)(checkoutHandler(&calls))

	postCheckout(handler, "key-1", `{"payment_method":"cash"}`)
	rec := postCheckout(handler, "key-1", `{"payment_method":"sinpe"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on body mismatch, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler must not rerun, ran %d times", calls)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, middlewareTestLogger(), time.Hour)(checkoutHandler(&calls))

	rec := postCheckout(handler, "", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatal("handler must not run without key")
	}
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	called := false
	handler := Idempotency(store, middlewareTestLogger(), time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/public/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("unguarded route must pass through")
	}
	if len(store.values) != 0 {
		t.Fatal("no record should be stored for unguarded routes")
	}
}

package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware(t *testing.T) {
	l := New(NewMemoryStore(), nil)
	cfg := Config{MaxRequests: 2, Window: time.Minute, Endpoint: "ping"}

	handler := Middleware(l, cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/ping", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	w := do()
	if w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want %q", got, "2")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("X-RateLimit-Remaining = %q, want %q", got, "1")
	}

	do()
	w = do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("denied response must carry Retry-After")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want %q", got, "0")
	}
}

func TestMiddleware_PartitionsByClient(t *testing.T) {
	l := New(NewMemoryStore(), nil)
	handler := Middleware(l, Config{MaxRequests: 1, Window: time.Minute, Endpoint: "ping"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(addr string) int {
		r := httptest.NewRequest("GET", "/ping", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	do("192.0.2.1:1")
	if code := do("192.0.2.1:2"); code != http.StatusTooManyRequests {
		t.Errorf("same client second request: status = %d, want 429", code)
	}
	if code := do("192.0.2.99:1"); code != http.StatusOK {
		t.Errorf("different client: status = %d, want 200", code)
	}
}

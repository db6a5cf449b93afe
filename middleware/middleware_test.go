package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"apicache"
	"apicache/middleware"
)

func newTestCache(t *testing.T) *apicache.Cache {
	t.Helper()
	c := apicache.New(apicache.Config{NoSweeper: true})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func jsonHandler(calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"city": r.URL.Query().Get("city"),
			"call": calls.Load(),
		})
	})
}

//
// ================= HIT / MISS BEHAVIOR =================
//

func TestMissThenHit(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, 30*time.Second, jsonHandler(&calls))

	// Cold: the handler runs, response is tagged MISS with a freshness
	// directive derived from the TTL.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("expected X-Cache MISS, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=30" {
		t.Fatalf("expected max-age from ttl, got %q", got)
	}
	firstBody := rec.Body.String()

	// Warm: the handler must NOT run again; the stored body is replayed.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil))

	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("expected X-Cache HIT, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected stored content type, got %q", got)
	}
	if rec.Body.String() != firstBody {
		t.Fatalf("expected replayed body %q, got %q", firstBody, rec.Body.String())
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one handler invocation, got %d", calls.Load())
	}
}

func TestDistinctIdentitiesDistinctEntries(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, time.Minute, jsonHandler(&calls))

	for _, target := range []string{
		"/api/weather?city=oslo",
		"/api/weather?city=bergen",
		"/api/satellite?city=oslo",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if got := rec.Header().Get("X-Cache"); got != "MISS" {
			t.Fatalf("%s: expected MISS, got %q", target, got)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler invocations, got %d", calls.Load())
	}
}

func TestErrorResponsesNotCached(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, time.Minute, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather", nil))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502 passthrough, got %d", rec.Code)
		}
	}

	// Both requests reached the handler; the failure was never replayed.
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler invocations, got %d", calls.Load())
	}
}

//
// ================= KEY DERIVATION =================
//

func TestKeyIgnoresQueryOrder(t *testing.T) {
	a := middleware.Key(httptest.NewRequest(http.MethodGet, "/api/weather?a=1&b=2", nil))
	b := middleware.Key(httptest.NewRequest(http.MethodGet, "/api/weather?b=2&a=1", nil))
	if a != b {
		t.Fatalf("expected identical keys regardless of parameter order: %q vs %q", a, b)
	}
}

func TestKeyVariesByIdentity(t *testing.T) {
	base := httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil)
	variants := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/weather?city=oslo", nil),
		httptest.NewRequest(http.MethodGet, "/api/satellite?city=oslo", nil),
		httptest.NewRequest(http.MethodGet, "/api/weather?city=bergen", nil),
	}
	for i, r := range variants {
		if middleware.Key(r) == middleware.Key(base) {
			t.Fatalf("variant %d: expected a different key", i)
		}
	}
}

func TestKeyPatternInvalidation(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, time.Minute, jsonHandler(&calls))

	for _, target := range []string{"/api/weather?city=oslo", "/api/weather?city=bergen"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	}

	// Keys keep method and path in the clear, so a route family can be
	// invalidated with one pattern after an external mutation.
	deleted, err := c.DeletePattern(`^GET:/api/weather:`)
	if err != nil {
		t.Fatalf("delete pattern: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected both weather entries invalidated, got %d", deleted)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil))
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("expected MISS after invalidation, got %q", got)
	}
}

//
// ================= TTL =================
//

func TestCachedResponseExpires(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, 30*time.Millisecond, jsonHandler(&calls))

	req := func() string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil))
		return rec.Header().Get("X-Cache")
	}

	if got := req(); got != "MISS" {
		t.Fatalf("expected MISS, got %q", got)
	}
	if got := req(); got != "HIT" {
		t.Fatalf("expected HIT within ttl, got %q", got)
	}

	time.Sleep(50 * time.Millisecond)

	if got := req(); got != "MISS" {
		t.Fatalf("expected MISS after ttl, got %q", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler invocations, got %d", calls.Load())
	}
}

//
// ================= STATS WIRING =================
//

func TestMiddlewareFeedsStats(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int64
	h := middleware.Wrap(c, time.Minute, jsonHandler(&calls))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?city=oslo", nil))
	}

	s := c.Stats()
	if s.Misses != 1 || s.Hits != 2 || s.Sets != 1 {
		t.Fatalf("expected 1 miss / 2 hits / 1 set, got %+v", s)
	}
}

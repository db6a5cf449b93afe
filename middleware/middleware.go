/*
Package middleware wraps an http.Handler with cache-aside behavior.

A wrapped handler short-circuits on a cache hit and replays the stored
response; on a miss the real handler runs, its JSON response body is captured
and stored for the configured TTL.

Precondition: wrap only safe, idempotent handlers (reads). The adapter does
no safety check of its own; caching a mutating endpoint is a caller error.
*/
package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"

	"apicache"
)

// headerCache is the response tag telling clients whether they were served
// from memory.
const headerCache = "X-Cache"

// cachedResponse is what the middleware stores per request identity.
type cachedResponse struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

/*
Key derives the cache key for a request from its method, path and sorted
query string.

The method and path stay in the clear so DeletePattern can invalidate whole
route families (for example `^GET:/api/weather`); the query string is
hashed to a fixed width so long parameter lists cannot produce unbounded
keys. url.Values.Encode sorts by parameter name, which makes the key
independent of the order parameters appear in the URL.
*/
func Key(r *http.Request) string {
	query := r.URL.Query().Encode()
	return fmt.Sprintf("%s:%s:%016x", r.Method, r.URL.Path, xxhash.Sum64String(query))
}

/*
Wrap returns a handler that serves next through the cache.

BEHAVIOR:
- hit  → the stored body is replayed with "X-Cache: HIT"; next never runs
- miss → next runs; a 200 response with a valid JSON body is stored for ttl,
  and the response is tagged "X-Cache: MISS" plus a Cache-Control max-age
  derived from the ttl
- non-200 responses and non-JSON bodies pass through untagged-by-the-store:
  they are never cached, so errors cannot be replayed to later clients

ttl <= 0 falls back to the cache's default TTL.
*/
func Wrap(c *apicache.Cache, ttl time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := Key(r)

		if v, ok := c.Get(key); ok {
			if cached, ok := v.(cachedResponse); ok {
				writeCached(w, cached, "HIT", ttl)
				return
			}
			// A foreign value under our key (snapshot round-trip, manual
			// Set) is unusable as a response; fall through to the handler.
		}

		rec := newRecorder()
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK && json.Valid(rec.body.Bytes()) {
			_ = c.Set(key, cachedResponse{
				Status:      rec.status,
				ContentType: rec.header.Get("Content-Type"),
				Body:        bytes.Clone(rec.body.Bytes()),
			}, ttl)
		}

		for k, vs := range rec.header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.Header().Set(headerCache, "MISS")
		setFreshness(w, ttl)
		w.WriteHeader(rec.status)
		_, _ = w.Write(rec.body.Bytes())
	})
}

func writeCached(w http.ResponseWriter, cached cachedResponse, tag string, ttl time.Duration) {
	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.Header().Set(headerCache, tag)
	setFreshness(w, ttl)
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

func setFreshness(w http.ResponseWriter, ttl time.Duration) {
	if ttl > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	}
}

// recorder buffers the downstream handler's response so the middleware can
// inspect and store it before anything reaches the client.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) { r.status = status }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

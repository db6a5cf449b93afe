package types

import "context"

/*
Producer is the fallback source invoked on a cache miss by GetOrSet.

This is the cache-aside contract:
1. Cache checks memory → key not found
2. Cache calls the producer (DB query, upstream API call, model inference...)
3. On success the result is stored and returned
4. On error NOTHING is stored and the error goes back to the caller verbatim

The cache imposes no timeout of its own on the producer. If the upstream can
hang, the caller bounds it through ctx.

Concurrent misses on the same key each invoke their own producer. The cache
does NOT coalesce them; callers that need single-flight semantics must layer
it on themselves.
*/
type Producer func(ctx context.Context) (any, error)

// Package httpcache provides HTTP response-cache middleware that
// short-circuits repeated safe requests on allow-listed path prefixes.
//
// The middleware consults a fail-soft response store (normally the
// Redis cache client) before invoking the downstream handler:
//
//  1. Non-GET methods and non-allow-listed paths bypass the cache.
//  2. The cache key is a hash of the path and the sorted query string,
//     so parameter order never fragments the cache.
//  3. On a hit the stored {status, headers, body} is replayed verbatim
//     with an X-Cache: HIT header.
//  4. On a miss the downstream response is captured; only 2xx responses
//     are stored. Per-request headers (Date, request IDs, cookies) are
//     stripped before storage so replays never leak another request's
//     metadata.
//
// Store failures degrade to pass-through: the downstream handler always
// runs when the cache cannot answer.
//
//	mux := http.NewServeMux()
//	// ... register handlers ...
//
//	cached := httpcache.New(httpcache.DefaultConfig(), cacheClient)(mux)
//	http.ListenAndServe(":8080", cached)
package httpcache

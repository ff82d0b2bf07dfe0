package httpcache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ResponseStore is the storage the middleware caches responses in. The
// fail-soft cache client satisfies it; Get must treat every failure as
// a miss.
type ResponseStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config holds middleware configuration.
type Config struct {
	// TTL is how long stored responses stay valid.
	TTL time.Duration

	// PathPrefixes is the allow-list; requests outside it bypass the
	// cache entirely.
	PathPrefixes []string

	// DenyHeaders are stripped from responses before storage so
	// request-scoped metadata is never replayed.
	DenyHeaders []string
}

// DefaultConfig returns a configuration suitable for the read-only
// diagnostics surface.
func DefaultConfig() Config {
	return Config{
		TTL:          60 * time.Second,
		PathPrefixes: []string{"/diag/"},
		DenyHeaders: []string{
			"Date",
			"Set-Cookie",
			"Server-Timing",
			"X-Request-Id",
			"X-Correlation-Id",
		},
	}
}

// cachedResponse is the stored {status, headers, body} triple.
type cachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// New returns response-cache middleware over the given store.
func New(cfg Config, store ResponseStore) func(http.Handler) http.Handler {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	logger := log.With().Str("component", "httpcache").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only GET is cached. HEAD responses have no body, so a
			// HEAD-primed entry would replay empty bodies to GETs.
			if r.Method != http.MethodGet {
				responseBypass.WithLabelValues("method").Inc()
				next.ServeHTTP(w, r)
				return
			}
			if !pathAllowed(cfg.PathPrefixes, r.URL.Path) {
				responseBypass.WithLabelValues("path").Inc()
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r.URL.Path, r.URL.Query())

			if data, ok := store.Get(r.Context(), key); ok {
				if replay(w, data, logger) {
					responseHits.Inc()
					return
				}
				// Corrupt entry: fall through to the handler.
			}
			responseMisses.Inc()

			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			// Only successful responses are cached; errors must be
			// recomputed on the next request.
			if rec.status < 200 || rec.status >= 300 {
				return
			}

			stored := cachedResponse{
				StatusCode: rec.status,
				Header:     stripHeaders(rec.Header(), cfg.DenyHeaders),
				Body:       rec.body.Bytes(),
			}
			data, err := json.Marshal(&stored)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Response not cacheable")
				return
			}
			if err := store.Set(r.Context(), key, data, cfg.TTL); err != nil {
				logger.Debug().Str("key", key).Msg("Response not cached")
			}
		})
	}
}

// replay writes a stored response verbatim. Returns false if the stored
// bytes cannot be decoded.
func replay(w http.ResponseWriter, data []byte, logger zerolog.Logger) bool {
	var stored cachedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn().Err(err).Msg("Corrupt cached response, serving downstream")
		return false
	}

	for name, values := range stored.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
	return true
}

func pathAllowed(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// stripHeaders clones header without the denylisted names.
func stripHeaders(header http.Header, deny []string) http.Header {
	out := header.Clone()
	for _, name := range deny {
		out.Del(name)
	}
	return out
}

// recorder captures the downstream response while passing it through
// to the real writer.
type recorder struct {
	http.ResponseWriter
	status  int
	body    bytes.Buffer
	written bool
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *recorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.written = true
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

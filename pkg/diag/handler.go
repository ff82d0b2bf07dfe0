// Package diag exposes the read-only diagnostics HTTP surface: registry
// listing, latest values, filtered history, statistics, full export,
// and cache health. Consumers always see valid data or an explicit
// empty/zero payload, never an error from a cold store.
package diag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leadrocket/observability/pkg/cache"
	"github.com/leadrocket/observability/pkg/metrics"
)

// tagParamPrefix marks query parameters that become tag filters,
// e.g. ?tag.city=Moscow.
const tagParamPrefix = "tag."

// Handler serves the diagnostics endpoints.
type Handler struct {
	store  *metrics.Store
	cache  *cache.Client // optional
	logger zerolog.Logger
}

// NewHandler creates a diagnostics handler. The cache client may be
// nil; /diag/cache then reports the cache as absent.
func NewHandler(store *metrics.Store, cacheClient *cache.Client) *Handler {
	return &Handler{
		store:  store,
		cache:  cacheClient,
		logger: log.With().Str("component", "diag").Logger(),
	}
}

// Register mounts the diagnostics routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /diag/registry", h.handleRegistry)
	mux.HandleFunc("GET /diag/metrics/{name}/latest", h.handleLatest)
	mux.HandleFunc("GET /diag/metrics/{name}/history", h.handleHistory)
	mux.HandleFunc("GET /diag/metrics/{name}/stats", h.handleStats)
	mux.HandleFunc("GET /diag/export", h.handleExport)
	mux.HandleFunc("GET /diag/cache", h.handleCache)
}

func (h *Handler) handleRegistry(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"definitions": h.store.Registry().Definitions(),
	})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.known(w, name) {
		return
	}

	value, ok := h.store.LatestValue(name)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"metric":  name,
		"value":   value,
		"present": ok,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.known(w, name) {
		return
	}

	opts, err := parseQueryOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples := h.store.Query(name, opts)
	if samples == nil {
		samples = []metrics.Sample{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"metric":  name,
		"samples": samples,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.known(w, name) {
		return
	}

	opts, err := parseQueryOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"metric": name,
		"stats":  h.store.Statistics(name, opts),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Export())
}

func (h *Handler) handleCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"health":  h.cache.Health(),
	})
}

// known writes a 404 and returns false for unregistered metric names.
func (h *Handler) known(w http.ResponseWriter, name string) bool {
	if _, ok := h.store.Registry().Lookup(name); !ok {
		h.writeError(w, http.StatusNotFound, "unknown metric: "+name)
		return false
	}
	return true
}

// parseQueryOptions reads since, limit, and tag.* parameters.
func parseQueryOptions(r *http.Request) (metrics.QueryOptions, error) {
	var opts metrics.QueryOptions

	query := r.URL.Query()
	if since := query.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return opts, fmt.Errorf("invalid since parameter %q: expected RFC3339", since)
		}
		opts.Since = ts
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid limit parameter %q", limit)
		}
		opts.Limit = n
	}
	for name, values := range query {
		if strings.HasPrefix(name, tagParamPrefix) && len(values) > 0 {
			if opts.Tags == nil {
				opts.Tags = metrics.Tags{}
			}
			opts.Tags[strings.TrimPrefix(name, tagParamPrefix)] = values[0]
		}
	}
	return opts, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode diagnostics response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

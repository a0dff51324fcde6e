package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/setgrouper/internal/api/shared"
	"github.com/phrazzld/setgrouper/internal/cardcache"
	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
)

// CacheMaintainer is the maintenance surface of the entry cache.
type CacheMaintainer interface {
	Stats(ctx context.Context) cardcache.Stats
	Keys(ctx context.Context) []string
	Clear(ctx context.Context)
	Remove(ctx context.Context, key string)
	EvictOldest(ctx context.Context, keep int) int
}

// CacheHandler handles cache maintenance requests.
type CacheHandler struct {
	cache  CacheMaintainer
	logger *slog.Logger
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cache CacheMaintainer, logger *slog.Logger) *CacheHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CacheHandler")
	}
	return &CacheHandler{
		cache:  cache,
		logger: logger.With(slog.String("component", "cache_handler")),
	}
}

// Stats handles GET /api/cache/stats.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.cache.Stats(r.Context()))
}

// Keys handles GET /api/cache/keys.
func (h *CacheHandler) Keys(w http.ResponseWriter, r *http.Request) {
	keys := h.cache.Keys(r.Context())
	if keys == nil {
		keys = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, KeysResponse{Keys: keys})
}

// Clear handles DELETE /api/cache.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(r.Context())
	logger.FromContextOrDefault(r.Context(), h.logger).Info("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/cache/{key}. Removing an absent key succeeds.
func (h *CacheHandler) Remove(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		verr := domain.NewValidationError("key", "has invalid format", domain.ErrValidation)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(verr), verr)
		return
	}

	h.cache.Remove(r.Context(), key)
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("cache entry removed", slog.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

// Evict handles POST /api/cache/evict?keep=N.
// It keeps the N most recent entries and removes the rest.
func (h *CacheHandler) Evict(w http.ResponseWriter, r *http.Request) {
	keep, err := strconv.Atoi(r.URL.Query().Get("keep"))
	if err != nil || keep < 0 {
		verr := domain.NewValidationError("keep", "must be a non-negative integer", domain.ErrValidation)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(verr), verr)
		return
	}

	evicted := h.cache.EvictOldest(r.Context(), keep)
	logger.FromContextOrDefault(r.Context(), h.logger).Info("cache evicted",
		slog.Int("keep", keep),
		slog.Int("evicted", evicted))
	shared.RespondWithJSON(w, r, http.StatusOK, EvictResponse{Evicted: evicted})
}

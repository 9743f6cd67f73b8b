package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

const defaultAlertLimit = 20

type metricsResponse struct {
	cache.MetricsSnapshot
	ErrorRate float64 `json:"errorRate"`
}

func (rt *Router) cacheMetrics(w http.ResponseWriter, r *http.Request) {
	snap := rt.store.Metrics().Snapshot()
	respondJSON(w, http.StatusOK, metricsResponse{MetricsSnapshot: snap, ErrorRate: snap.ErrorRate()})
}

func (rt *Router) performance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rt.monitor.GeneratePerformanceReport())
}

func (rt *Router) trends(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rt.monitor.Trends())
}

func (rt *Router) alerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": rt.monitor.Alerts(limit)})
}

func (rt *Router) clearAlerts(w http.ResponseWriter, r *http.Request) {
	rt.monitor.ClearAlerts()
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) optimize(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rt.monitor.OptimizeCache())
}

type warmRequest struct {
	StoreIDs []string `json:"storeIds"`
}

func (rt *Router) warm(w http.ResponseWriter, r *http.Request) {
	if rt.warmer == nil {
		respondError(w, http.StatusNotImplemented, "cache warming is not configured")
		return
	}

	var req warmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.StoreIDs) == 0 {
		respondError(w, http.StatusBadRequest, "storeIds is required")
		return
	}

	report := rt.store.WarmCache(r.Context(), rt.warmer.WarmEntries(req.StoreIDs))
	rt.logger.Info("cache warmed", zap.Strings("stores", req.StoreIDs), zap.Int("keys", len(report.Warmed)))
	respondJSON(w, http.StatusOK, report)
}

func (rt *Router) reset(w http.ResponseWriter, r *http.Request) {
	rt.store.Reset(r.Context())
	rt.logger.Warn("cache reset")
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	respondJSON(w, http.StatusOK, map[string]any{"key": key, "deleted": rt.store.Del(r.Context(), key)})
}

func (rt *Router) deletePattern(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		respondError(w, http.StatusBadRequest, "pattern is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"pattern": pattern,
		"deleted": rt.store.InvalidatePattern(r.Context(), pattern),
	})
}

func (rt *Router) invalidateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	respondJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"deleted": rt.store.InvalidateUserCache(r.Context(), userID),
	})
}

func (rt *Router) invalidateStore(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	respondJSON(w, http.StatusOK, map[string]any{
		"storeId": storeID,
		"deleted": rt.store.InvalidateStoreCache(r.Context(), storeID),
	})
}

package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

func (rt *Router) globalSearch(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	q := r.URL.Query()

	limit := 0
	if raw := q.Get(search.FilterLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	res, err := rt.searcher.GlobalSearch(r.Context(), storeID, q.Get(search.FilterQuery), limit)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// searchType searches one entity type. Every query parameter other than
// q, page, limit and sort is a term filter; the store filter always comes
// from the path.
func (rt *Router) searchType(w http.ResponseWriter, r *http.Request) {
	ix, err := rt.searcher.Index(chi.URLParam(r, "entityType"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}

	filters := search.FiltersFromValues(r.URL.Query())
	filters.Set(ix.StoreField(), chi.URLParam(r, "storeID"))

	res, err := ix.SearchEntities(r.Context(), filters.Query(), filters)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (rt *Router) reindexStore(w http.ResponseWriter, r *http.Request) {
	report, err := rt.searcher.ReindexStore(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		rt.logger.Error("store reindex failed", zap.Error(err))
		respondJSON(w, StatusFor(err), map[string]any{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	respondJSON(w, http.StatusOK, report)
}

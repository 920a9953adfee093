package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const defaultInteractionLimit = 20

func (rt *Router) listInteractions(w http.ResponseWriter, r *http.Request) {
	limit := defaultInteractionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = n
	}

	items, err := rt.deps.Interactions.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Interaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

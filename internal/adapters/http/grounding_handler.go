package httpadapter

import (
	"net/http"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

type groundingRequest struct {
	Utterance     string `json:"utterance"`
	ForceFullPath bool   `json:"force_full_path"`
}

func (rt *Router) ground(w http.ResponseWriter, r *http.Request) {
	var req groundingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("utterance is required"))
		return
	}

	result := rt.deps.Grounder.Ground(r.Context(), req.Utterance, ports.GroundOptions{
		ForceFullPath: req.ForceFullPath,
	})
	writeJSON(w, http.StatusOK, result)
}

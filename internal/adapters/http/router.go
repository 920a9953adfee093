package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/config"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
	"github.com/kirillkom/gomi-assistant/internal/observability/metrics"
)

const maxJSONBody = 1 << 20

// Dependencies are the inbound ports the HTTP API serves. Metrics is optional.
type Dependencies struct {
	Grounder     ports.Grounder
	Answers      ports.AnswerService
	Ingestor     ports.CatalogIngestor
	Catalogs     ports.CatalogReader
	Interactions ports.InteractionReader
	Metrics      *metrics.HTTPServerMetrics
}

type Router struct {
	deps Dependencies

	maxUploadBytes int64
	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	queueWait      time.Duration
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Router{
		deps:           deps,
		maxUploadBytes: maxUpload,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
		queueWait:      cfg.APIQueueWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/grounding", rt.ground)
	mux.HandleFunc("POST /api/bot/respond", rt.respond)
	mux.HandleFunc("POST /api/bot/respond_stream", rt.respondStream)
	mux.HandleFunc("POST /v1/catalogs", rt.uploadCatalog)
	mux.HandleFunc("GET /v1/catalogs/{id}", rt.getCatalog)
	mux.HandleFunc("GET /v1/interactions", rt.listInteractions)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.queueWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// writeError maps domain error kinds to a status. 500 responses do not echo
// internal error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		message = "internal error"
	case status == http.StatusServiceUnavailable:
		slog.Warn("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody(message))
}

package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type replyResponse struct {
	Reply      string             `json:"reply"`
	References []domain.Reference `json:"references"`
}

func (rt *Router) respond(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := rt.deps.Answers.Respond(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordAnswer(domain.InteractionModeBlocking, answer)

	references := answer.References
	if references == nil {
		references = []domain.Reference{}
	}
	writeJSON(w, http.StatusOK, replyResponse{Reply: answer.Text, References: references})
}

// respondStream writes generated tokens as a chunked text/plain body. Retrieval
// results travel in the X-References header, so they are fixed before the
// first token is sent.
func (rt *Router) respondStream(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stream := newTextStream(w)
	answer, err := rt.deps.Answers.RespondStream(r.Context(), req.Prompt, stream)
	if err != nil {
		if !stream.started {
			writeError(w, r, err)
			return
		}
		slog.Error("answer_stream_failed",
			"request_id", requestIDFromContext(r.Context()),
			"bytes", stream.written,
			"error", err,
		)
		return
	}
	rt.recordAnswer(domain.InteractionModeStreaming, answer)
}

func (rt *Router) recordAnswer(mode string, answer *domain.Answer) {
	if rt.deps.Metrics == nil || answer == nil {
		return
	}
	retrieval := time.Duration(answer.RetrievalMS * float64(time.Millisecond))
	rt.deps.Metrics.RecordAnswer(mode, len(answer.References), retrieval)
}

package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf16"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const referencesHeader = "X-References"

// textStream implements ports.AnswerStream over a plain HTTP response.
type textStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	written int
}

func newTextStream(w http.ResponseWriter) *textStream {
	flusher, _ := w.(http.Flusher)
	return &textStream{w: w, flusher: flusher}
}

func (s *textStream) Begin(answer *domain.Answer) error {
	header, err := encodeReferences(answer)
	if err != nil {
		return err
	}

	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set(referencesHeader, header)
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	s.flush()
	return nil
}

func (s *textStream) Token(token string) error {
	if !s.started {
		return fmt.Errorf("write token: stream not started")
	}
	n, err := io.WriteString(s.w, token)
	s.written += n
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	s.flush()
	return nil
}

func (s *textStream) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

type performanceEntry struct {
	Type            string  `json:"type"`
	RetrievalTimeMS float64 `json:"retrieval_time_ms"`
}

// encodeReferences renders the references list for the header. A performance
// entry is appended only when there is at least one reference.
func encodeReferences(answer *domain.Answer) (string, error) {
	entries := make([]any, 0, len(answer.References)+1)
	for _, ref := range answer.References {
		entries = append(entries, ref)
	}
	if len(entries) > 0 {
		entries = append(entries, performanceEntry{Type: "performance", RetrievalTimeMS: answer.RetrievalMS})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode references: %w", err)
	}
	return asciiJSON(raw), nil
}

// asciiJSON rewrites every non-ASCII rune as a \u escape so the JSON is a
// valid header value. Non-ASCII can only occur inside JSON strings.
func asciiJSON(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range string(raw) {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}

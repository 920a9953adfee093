package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx reply from the Ollama API.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, body)
}

// Temporary reports whether the status usually clears on its own (model
// loading, overload, gateway hiccups).
func (e *HTTPStatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

var (
	transientFailure = resilience.Classification{Retryable: true, RecordFailure: true}
	permanentFailure = resilience.Classification{RecordFailure: true}
	callerFailure    = resilience.Classification{}
)

func classifyOllamaError(err error) resilience.Classification {
	var (
		statusErr *HTTPStatusError
		netErr    net.Error
	)
	switch {
	case err == nil:
		return callerFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return callerFailure
	case errors.As(err, &statusErr):
		if statusErr.Temporary() {
			return transientFailure
		}
		// Unknown model or bad request: the server is healthy.
		return callerFailure
	case errors.As(err, &netErr):
		return transientFailure
	default:
		return permanentFailure
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary):
		return err
	case resilience.IsCircuitOpen(err), classifyOllamaError(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return err
	}
}

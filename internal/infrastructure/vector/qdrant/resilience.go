package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

// StatusError is a non-2xx reply from the Qdrant API.
type StatusError struct {
	Operation  string
	Collection string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s %s status: %s", e.Operation, e.Collection, e.Status)
	}
	return fmt.Sprintf("qdrant %s %s status: %s: %s", e.Operation, e.Collection, e.Status, e.Body)
}

func classifyQdrantError(err error) resilience.Classification {
	var (
		statusErr *StatusError
		netErr    net.Error
	)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Classification{}
	case errors.As(err, &statusErr):
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.StatusCode >= 500:
			return resilience.Classification{Retryable: true, RecordFailure: true}
		default:
			// 404 for a missing collection, 409 on create: not an outage.
			return resilience.Classification{}
		}
	case errors.As(err, &netErr):
		return resilience.Classification{Retryable: true, RecordFailure: true}
	default:
		return resilience.Classification{RecordFailure: true}
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || classifyQdrantError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

var statusByKind = map[error]int{
	domain.ErrInvalidInput:    http.StatusBadRequest,
	domain.ErrCatalogNotFound: http.StatusNotFound,
	domain.ErrTemporary:       http.StatusServiceUnavailable,
}

func mapErrorToHTTPStatus(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Adapters wrap their failures with one of these so callers can
// branch on the kind without knowing which backend failed.
var (
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")
)

var errorKinds = []error{ErrInvalidInput, ErrCatalogNotFound, ErrTemporary}

// WrapError tags err with kind and the failing operation.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the first known kind in err's chain, or nil.
func KindOf(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

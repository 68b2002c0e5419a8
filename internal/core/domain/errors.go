package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady means no index generation has been installed yet; queries
	// fail closed instead of serving against a partial structure.
	ErrNotReady = errors.New("retrieval engine not ready")
	// ErrInvalidRequester means the requester's identity could not be
	// established; callers must treat the request as holding no clearances.
	ErrInvalidRequester = errors.New("invalid requester context")
	// ErrDimensionMismatch means the query embedding does not match the
	// index dimensionality. A caller-contract violation, never padded over.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

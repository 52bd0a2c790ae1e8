package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/party-lifecycle/internal/domain/repository"
)

// Error taxonomy returned by every service operation. Callers match with errors.Is.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrStoreConflict     = errors.New("concurrent update, refresh and retry")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

var taxonomy = []error{ErrInvalidTransition, ErrForbidden, ErrNotFound, ErrStoreConflict, ErrStoreUnavailable}

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// storeErr wraps a repository error into the taxonomy. Errors already
// classified pass through unchanged.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return err
		}
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, op, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s: %w", ErrStoreConflict, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
}

// ErrorClass returns a short label for err, used for metrics and logs.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreConflict):
		return "store_conflict"
	default:
		return "store_unavailable"
	}
}

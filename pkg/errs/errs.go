// Package errs defines the error taxonomy shared by the security core and
// the HTTP boundary. Handlers classify failures with errors.Is and translate
// them to status codes via HTTPStatus; storage code maps driver errors with
// FromPG before they surface.
package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

var (
	// ErrUnauthenticated means no principal could be resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means a principal was resolved but holds an insufficient
	// access level. Callers never attach grant details to it.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced resource or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means required input was missing or malformed; it is
	// raised before any side effect.
	ErrValidation = errors.New("validation failure")

	// ErrCorruptCredential means a stored credential violates the byte-length
	// contract. It is never repaired silently.
	ErrCorruptCredential = errors.New("corrupt credential record")

	// ErrInternal covers entropy-source and other unexpected failures.
	ErrInternal = errors.New("internal failure")
)

// Vendor SQLSTATE codes the storage layer signals authorization and
// existence outcomes with.
const (
	sqlStateForbidden       = "2F004"
	sqlStateUnauthenticated = "28000"
	sqlStateNotFound        = "02000"
)

// Validationf builds a validation error with a caller-facing message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// FromPG classifies a postgres error into the taxonomy. The database uses
// SQLSTATE codes to signal permission and existence outcomes from stored
// procedures, so the mapping happens here rather than in each caller.
func FromPG(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case sqlStateForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case sqlStateUnauthenticated:
			return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		case sqlStateNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return fmt.Errorf("storage failure: %w", err)
}

// HTTPStatus maps a classified error to the nearest HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/organizator/organizator/pkg/contextkeys"
	"github.com/organizator/organizator/pkg/errs"
	"github.com/organizator/organizator/pkg/httputil"
)

// writeError maps a taxonomy error onto an HTTP response. Denials carry a
// fixed message so callers learn nothing about grant structure; validation
// failures echo their own message since the caller supplied the bad input.
func writeError(w http.ResponseWriter, err error) {
	switch status := errs.HTTPStatus(err); status {
	case http.StatusBadRequest:
		httputil.WriteBadRequest(w, err.Error())
	case http.StatusUnauthorized:
		httputil.WriteUnauthorized(w, "authentication required")
	case http.StatusForbidden:
		httputil.WriteForbidden(w, "forbidden")
	case http.StatusNotFound:
		httputil.WriteNotFoundError(w, "not found")
	default:
		httputil.WriteInternalError(w, err)
	}
}

func isDenied(err error) bool {
	return errors.Is(err, errs.ErrForbidden)
}

func contextRequestID(r *http.Request) string {
	return contextkeys.GetRequestID(r.Context())
}

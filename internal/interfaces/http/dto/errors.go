package dto

import (
	"net/http"

	"github.com/oms/backend/internal/domain/shared"
)

// General error codes for failures that happen before the request reaches
// the domain
const (
	// ErrCodeBadRequest is used for malformed request bodies or parameters
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation: http.StatusBadRequest,
	shared.KindConflict:   http.StatusConflict,
	shared.KindNotFound:   http.StatusNotFound,
	shared.KindFailure:    http.StatusInternalServerError,
}

// HTTPStatusForKind returns the HTTP status code for a domain error kind.
// Unknown kinds map to 500 Internal Server Error.
func HTTPStatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HTTPStatusForError returns the HTTP status code for any error, deriving
// the kind through the domain error taxonomy
func HTTPStatusForError(err error) int {
	return HTTPStatusForKind(shared.KindOf(err))
}

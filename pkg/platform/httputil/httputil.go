// Package httputil centralizes JSON response and error envelope writing so
// every handler maps domain error codes to HTTP status lines the same way.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "podium/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status. Encoding failures are not
// recoverable at this point; the status line is already committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into the JSON error envelope.
// Internal codes never expose their message to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: errorName(code)}
	var de *dErrors.Error
	if exposable(code) && errors.As(err, &de) {
		body.Description = de.Message
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorName(code dErrors.Code) string {
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return "internal_error"
	default:
		return string(code)
	}
}

// exposable reports whether the error message is safe to return to the caller.
func exposable(code dErrors.Code) bool {
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return false
	default:
		return true
	}
}

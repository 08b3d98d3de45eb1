// Package middleware holds the HTTP middleware chain: request identity,
// request-scoped time, client metadata and structured request logging.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"podium/pkg/requestcontext"
)

// RequestID assigns every request an id, honoring one supplied by an upstream
// proxy, and echoes it back in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

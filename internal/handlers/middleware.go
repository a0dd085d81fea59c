package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader is the header used to propagate request identifiers.
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request an identifier, reusing an incoming
// X-Request-ID when present. The logger picks the value up from the
// request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

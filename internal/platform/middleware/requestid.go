package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"finaudit/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures every request carries a correlation id, preferring the
// caller-supplied header and minting one otherwise. The id is echoed back in
// the response so clients can quote it when reporting problems.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

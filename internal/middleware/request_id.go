package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns every request an ID, honoring one supplied by the caller.
// The ID ends up in access logs, error envelopes, and the audit rows written
// for supplier and import mutations, so one import can be traced end to end.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

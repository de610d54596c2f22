package middleware

import (
	"net/http"

	"github.com/benvon/emp-backend/internal/request"
	"github.com/google/uuid"
)

// maxRequestIDLength bounds inbound request IDs before they are echoed and logged
const maxRequestIDLength = 128

// RequestID ensures each request has an ID in context and response headers.
// An inbound X-Request-ID is reused when present and reasonably sized.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(request.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithRequestID(r.Context(), id)))
	})
}

package middleware

import "net/http"

// Chain wraps h with mws. The first middleware is the outermost, so it sees the request
// first and the response last.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

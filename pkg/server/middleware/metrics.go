package middleware

import (
	"net/http"
	"time"
)

// UnmatchedRoute labels requests that matched no route.
const UnmatchedRoute = "unmatched"

// HTTPRecorder receives one observation per request.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// Metrics records each request under its matched ServeMux pattern, so path
// parameters do not explode label cardinality.
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = UnmatchedRoute
			}
			recorder.RecordHTTPRequest(route, r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// Chain applies middlewares so that the first is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/telemetry/logging"
)

// errorResponse is the JSON body returned for failed plain HTTP requests.
type errorResponse struct {
	Error string `json:"error"`
}

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// Internal Server Error response. It logs the panic with stack trace but does
// not expose internal details to clients. A panic after the connection was
// hijacked cannot be answered and is only logged.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw, ok := w.(*responseWriter)
			if !ok {
				rw = newResponseWriter(w)
			}

			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					if rw.hijacked || rw.written {
						return
					}
					rw.Header().Set("Content-Type", "application/json")
					rw.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(rw).Encode(errorResponse{
						Error: "An internal error occurred. Please try again later.",
					})
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

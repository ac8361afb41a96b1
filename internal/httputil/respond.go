// Package httputil centralizes the daemon's HTTP responses. Every error
// response goes through Error so it is logged with request context and
// rendered as JSON the extension can parse.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes v as a JSON response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error response and logs it with the request's
// method, path, and remote address so failures can be correlated from
// the process log alone.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, reason string) {
	logger.Error(reason,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	JSON(w, status, map[string]any{
		"error":  reason,
		"status": status,
	})
}

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError writes the same {"error":{"code","message"}} envelope the
// handlers use, without importing the handler package.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write middleware error response", "status", status, "error", err)
	}
}

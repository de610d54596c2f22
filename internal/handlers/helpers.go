package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// respondText sends a plain text response
func respondText(w http.ResponseWriter, status int, body string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write([]byte(body)); err != nil {
		// The client went away; nothing left to send
		logger.Debug("failed_to_write_response", zap.Error(err), zap.Int("status_code", status))
	}
}

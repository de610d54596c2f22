package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HealthPaths are the liveness paths served by the health handler
var HealthPaths = []string{"/", "/healthz"}

const healthBody = "ok"

// HealthHandler answers liveness probes. It checks nothing beyond the process being able
// to serve HTTP.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// RegisterRoutes registers GET on every liveness path. Other methods on these paths get the
// router's 405.
func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	for _, path := range HealthPaths {
		r.HandleFunc(path, h.Liveness).Methods(http.MethodGet)
	}
}

// Liveness handles GET / and GET /healthz
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, healthBody, h.logger)
}

package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/config"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Service        string `json:"service"`
	GoVersion      string `json:"go_version"`
	Hostname       string `json:"hostname"`
	Environment    string `json:"environment"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	EmailProvider  string `json:"email_provider,omitempty"`
}

const readinessTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *database.DB
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check, readiness and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil, in which case
// readiness only reflects that the process is serving.
func NewHealthHandler(cfg *config.Config, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /ready. It answers 503 while Postgres is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("error", logging.SanitizeError(err)))
			writeError(w, http.StatusServiceUnavailable, "database_unavailable", "Database is not reachable", h.logger)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Ping handles GET /ping requests with version and environment details.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:         "ok",
		Version:        h.cfg.Version,
		Service:        "coldconnect-engine",
		GoVersion:      runtime.Version(),
		Hostname:       hostname,
		Environment:    h.cfg.Env,
		EmbeddingModel: h.cfg.Embedding.Model,
		EmailProvider:  h.cfg.EmailGeneration.Provider,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

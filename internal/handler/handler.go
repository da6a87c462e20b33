package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/schoolink-dev/schoolink/internal/config"
	"github.com/schoolink-dev/schoolink/internal/logger"
	"github.com/schoolink-dev/schoolink/internal/service"
)

// Pinger reports storage connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	message service.MessagingService
	health  Pinger
	cfg     *config.Config
}

func New(message service.MessagingService, health Pinger, cfg *config.Config) *Handler {
	return &Handler{message, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

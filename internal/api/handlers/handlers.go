package handlers

import (
	"encoding/json"
	"net/http"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/infrastructure/database/repository"
	"honeytrap-lab/internal/streaming"
	"honeytrap-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Honeypot *HoneypotHandler
	Sessions *SessionsHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Engagement *services.EngagementService
	Cache      *cache.RedisCache
	DB         *database.PostgresDB
	Reports    *repository.ReportRepository
	NATS       *streaming.NATSPublisher
	Logger     *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.DB, deps.NATS, deps.Logger),
		Honeypot: NewHoneypotHandler(deps.Engagement, deps.Logger),
		Sessions: NewSessionsHandler(deps.Engagement, deps.Cache, deps.Reports, deps.Logger),
		Stats:    NewStatsHandler(deps.Engagement, deps.Logger),
	}
}

// errorResponse is the uniform error body
type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

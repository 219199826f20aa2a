package handlers

import (
	"net/http"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	engagement *services.EngagementService
	logger     *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(engagement *services.EngagementService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		engagement: engagement,
		logger:     log.WithComponent("stats"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engagement.Stats())
}

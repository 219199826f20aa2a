package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

// HoneypotHandler handles the scammer engagement endpoints
type HoneypotHandler struct {
	engagement *services.EngagementService
	logger     *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler
func NewHoneypotHandler(engagement *services.EngagementService, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		engagement: engagement,
		logger:     log.WithComponent("honeypot"),
	}
}

// Engage handles POST /api/v1/engage
func (h *HoneypotHandler) Engage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTurn(w, r)
	if !ok {
		return
	}

	resp, err := h.engagement.HandleTurn(r.Context(), req)
	if err != nil {
		h.writeTurnError(w, req.SessionID, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// EngageSimple handles POST /api/v1/engage/simple. It runs the same turn
// pipeline but returns only the agent reply.
func (h *HoneypotHandler) EngageSimple(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTurn(w, r)
	if !ok {
		return
	}

	resp, err := h.engagement.HandleTurn(r.Context(), req)
	if err != nil {
		h.writeTurnError(w, req.SessionID, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SimpleEngageResponse{
		Status: resp.Status,
		Reply:  resp.AgentResponse,
	})
}

func (h *HoneypotHandler) decodeTurn(w http.ResponseWriter, r *http.Request) (models.EngageRequest, bool) {
	var req models.EngageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return req, false
	}
	if req.Message.Text == "" {
		respondError(w, http.StatusBadRequest, "message.text is required")
		return req, false
	}
	return req, true
}

func (h *HoneypotHandler) writeTurnError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, services.ErrSessionTerminal):
		respondError(w, http.StatusConflict, "session already completed")
	case errors.Is(err, services.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	default:
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("turn processing failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database/repository"
	"honeytrap-lab/pkg/logger"
)

// SessionsHandler handles session inspection endpoints
type SessionsHandler struct {
	engagement *services.EngagementService
	cache      *cache.RedisCache
	reports    *repository.ReportRepository
	logger     *logger.Logger
}

// NewSessionsHandler creates a new SessionsHandler
func NewSessionsHandler(engagement *services.EngagementService, c *cache.RedisCache, reports *repository.ReportRepository, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		engagement: engagement,
		cache:      c,
		reports:    reports,
		logger:     log.WithComponent("sessions"),
	}
}

// sessionView is the session snapshot returned by the API. The full
// conversation is included so operators can review engagement quality.
type sessionView struct {
	SessionID      string                    `json:"sessionId"`
	Status         models.SessionStatus      `json:"status"`
	Persona        models.Persona            `json:"persona"`
	ScamDetected   bool                      `json:"scamDetected"`
	ScamConfidence float64                   `json:"scamConfidence"`
	ScamType       string                    `json:"scamType,omitempty"`
	MessageCount   int                       `json:"messageCount"`
	Conversation   []models.MessageTurn      `json:"conversation"`
	Intelligence   models.IntelligenceReport `json:"extractedIntelligence"`
	AgentNotes     []string                  `json:"agentNotes"`
	CreatedAt      string                    `json:"createdAt"`
	LastActivityAt string                    `json:"lastActivityAt"`
	CompletedAt    string                    `json:"completedAt,omitempty"`
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(session))
}

// Intelligence handles GET /api/v1/sessions/{id}/intelligence
func (h *SessionsHandler) Intelligence(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.Intelligence)
}

// Complete handles POST /api/v1/sessions/{id}/complete. Completion is
// idempotent; completing an already-terminal session returns its final
// state.
func (h *SessionsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.engagement.Complete(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to complete session")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newSessionView(session))
}

// Report handles GET /api/v1/sessions/{id}/report. It serves the
// archived final report: Redis first, then PostgreSQL.
func (h *SessionsHandler) Report(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if h.cache != nil {
		var payload models.CallbackPayload
		if err := h.cache.GetFinalReport(r.Context(), sessionID, &payload); err == nil {
			respondJSON(w, http.StatusOK, payload)
			return
		}
	}

	if h.reports != nil {
		report, err := h.reports.GetBySessionID(r.Context(), sessionID)
		if err == nil && report != nil {
			respondJSON(w, http.StatusOK, report)
			return
		}
	}

	respondError(w, http.StatusNotFound, "report not found")
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.engagement.Session(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("session lookup failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return session, true
}

func newSessionView(s *models.Session) sessionView {
	view := sessionView{
		SessionID:      s.ID,
		Status:         s.Status,
		Persona:        s.Persona,
		ScamDetected:   s.ScamDetected,
		ScamConfidence: s.ScamConfidence,
		ScamType:       s.ScamType,
		MessageCount:   s.MessageCount,
		Conversation:   s.Conversation,
		Intelligence:   s.Intelligence,
		AgentNotes:     s.AgentNotes,
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339),
		LastActivityAt: s.LastActivityAt.UTC().Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		view.CompletedAt = s.CompletedAt.UTC().Format(time.RFC3339)
	}
	return view
}

package streaming

import (
	"time"

	"honeytrap-lab/internal/domain/models"
)

// EventType identifies a session lifecycle event
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
)

// SessionEvent is published on session lifecycle transitions
type SessionEvent struct {
	Type         EventType            `json:"type"`
	SessionID    string               `json:"session_id"`
	Status       models.SessionStatus `json:"status"`
	ScamDetected bool                 `json:"scam_detected"`
	ScamType     string               `json:"scam_type,omitempty"`
	MessageCount int                  `json:"message_count"`
	Entities     int                  `json:"entities"`
	Persona      string               `json:"persona,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// NewSessionEvent builds an event from a session snapshot
func NewSessionEvent(eventType EventType, session *models.Session) *SessionEvent {
	return &SessionEvent{
		Type:         eventType,
		SessionID:    session.ID,
		Status:       session.Status,
		ScamDetected: session.ScamDetected,
		ScamType:     session.ScamType,
		MessageCount: session.MessageCount,
		Entities:     session.Intelligence.TotalEntities(),
		Persona:      session.Persona.Name,
		Timestamp:    time.Now(),
	}
}

package models

import (
	"time"
)

// SessionStatus represents the lifecycle state of an engagement session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusExpired   SessionStatus = "expired"
)

// Terminal reports whether the status admits no further turns
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusExpired
}

// Sender identifies which side of the conversation produced a turn
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderUser    Sender = "user"
)

// MessageTurn is one message in a conversation. Immutable once recorded.
type MessageTurn struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one continuous multi-turn engagement keyed by the caller's
// session ID. Persona is fixed at creation; Intelligence only grows.
type Session struct {
	ID             string             `json:"id"`
	Status         SessionStatus      `json:"status"`
	Persona        Persona            `json:"persona"`
	Conversation   []MessageTurn      `json:"conversation"`
	Intelligence   IntelligenceReport `json:"intelligence"`
	ScamDetected   bool               `json:"scam_detected"`
	ScamConfidence float64            `json:"scam_confidence"`
	ScamType       string             `json:"scam_type,omitempty"`
	AgentNotes     []string           `json:"agent_notes,omitempty"`
	MessageCount   int                `json:"message_count"`
	CreatedAt      time.Time          `json:"created_at"`
	LastActivityAt time.Time          `json:"last_activity_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// EngagementDuration returns elapsed engagement time, frozen at completion.
func (s *Session) EngagementDuration() time.Duration {
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.CreatedAt)
	}
	return s.LastActivityAt.Sub(s.CreatedAt)
}

// NotesSummary joins the most recent agent notes into one summary line
func (s *Session) NotesSummary() string {
	notes := s.AgentNotes
	if len(notes) == 0 {
		return "No engagement notes recorded"
	}
	if len(notes) > 5 {
		notes = notes[len(notes)-5:]
	}
	summary := notes[0]
	for _, n := range notes[1:] {
		summary += " | " + n
	}
	return summary
}

// FinalPayload builds the completion payload for a finished session
func (s *Session) FinalPayload() CallbackPayload {
	return CallbackPayload{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: s.MessageCount,
		ExtractedIntelligence:  s.Intelligence,
		AgentNotes:             s.NotesSummary(),
	}
}

// SessionStats aggregates service-level counters across all sessions
type SessionStats struct {
	ActiveSessions    int `json:"active_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	ExpiredSessions   int `json:"expired_sessions"`
	TotalSessions     int `json:"total_sessions"`
	ScamsDetected     int `json:"scams_detected"`
	MessagesProcessed int `json:"messages_processed"`
	CallbacksQueued   int `json:"callbacks_queued"`
}

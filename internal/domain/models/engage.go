package models

import "time"

// EngageRequest is the inbound turn payload posted by the evaluator.
// conversationHistory carries prior turns for callers that do not rely on
// server-side session state; the session store remains authoritative.
type EngageRequest struct {
	SessionID           string           `json:"sessionId"`
	Message             InboundMessage   `json:"message"`
	ConversationHistory []InboundMessage `json:"conversationHistory,omitempty"`
	Metadata            EngageMetadata   `json:"metadata,omitempty"`
}

// InboundMessage is one turn as supplied on the wire
type InboundMessage struct {
	Sender    string     `json:"sender,omitempty"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// EngageMetadata carries channel and language hints for the turn
type EngageMetadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// EngagementMetrics summarizes session progress for the detailed response
type EngagementMetrics struct {
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
	TotalMessagesExchanged    int `json:"totalMessagesExchanged"`
}

// EngageResponse is the detailed per-turn response
type EngageResponse struct {
	Status                 string             `json:"status"`
	ScamDetected           bool               `json:"scamDetected"`
	AgentResponse          string             `json:"agentResponse"`
	EngagementMetrics      EngagementMetrics  `json:"engagementMetrics"`
	ExtractedIntelligence  IntelligenceReport `json:"extractedIntelligence"`
	AgentNotes             string             `json:"agentNotes"`
	SessionActive          bool               `json:"sessionActive"`
}

// SimpleEngageResponse is the minimal alternate contract over the same
// turn pipeline
type SimpleEngageResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// CallbackPayload is the final-result payload pushed to the external
// evaluator when a session completes
type CallbackPayload struct {
	SessionID              string             `json:"sessionId"`
	ScamDetected           bool               `json:"scamDetected"`
	TotalMessagesExchanged int                `json:"totalMessagesExchanged"`
	ExtractedIntelligence  IntelligenceReport `json:"extractedIntelligence"`
	AgentNotes             string             `json:"agentNotes"`
}

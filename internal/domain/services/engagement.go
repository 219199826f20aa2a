package services

import (
	"context"
	"strings"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/domain/services/ai"
	"honeytrap-lab/pkg/logger"
)

// SessionEventPublisher announces session lifecycle transitions. Optional;
// a nil publisher disables event streaming.
type SessionEventPublisher interface {
	SessionStarted(session *models.Session)
	SessionCompleted(session *models.Session)
}

// EngagementService runs the per-turn pipeline: resolve session, detect,
// extract, reply, record, and complete when the message cap is reached.
type EngagementService struct {
	store     *SessionStore
	detector  *Detector
	extractor *Extractor
	agent     *ai.Agent
	events    SessionEventPublisher
	logger    *logger.Logger
}

// NewEngagementService wires the turn pipeline. events may be nil.
func NewEngagementService(
	store *SessionStore,
	detector *Detector,
	extractor *Extractor,
	agent *ai.Agent,
	events SessionEventPublisher,
	log *logger.Logger,
) *EngagementService {
	return &EngagementService{
		store:     store,
		detector:  detector,
		extractor: extractor,
		agent:     agent,
		events:    events,
		logger:    log.WithComponent("engagement"),
	}
}

// HandleTurn processes one inbound scammer turn and returns the detailed
// response. Returns ErrSessionTerminal for turns against closed sessions.
func (e *EngagementService) HandleTurn(ctx context.Context, req models.EngageRequest) (*models.EngageResponse, error) {
	session, release, created, err := e.store.Acquire(req.SessionID, ai.GeneratePersona)
	if err != nil {
		return nil, err
	}
	defer release()

	if created {
		if e.events != nil {
			e.events.SessionStarted(session)
		}
		// A fresh session may arrive with prior turns the caller already
		// exchanged elsewhere; fold them into the report.
		e.seedFromHistory(session, req.ConversationHistory)
	}

	text := req.Message.Text
	verdict := e.detector.Detect(text, session.Conversation)
	if verdict.IsScam {
		e.store.MarkScamDetected(session, verdict)
	}

	session.Intelligence = e.extractor.Extract(session.Intelligence, text)

	messageCount := len(session.Conversation) + 1
	replyReq := ai.ReplyRequest{
		Persona:      session.Persona,
		History:      session.Conversation,
		Incoming:     text,
		MessageCount: messageCount,
		IsScam:       session.ScamDetected,
		ScamType:     session.ScamType,
		Language:     requestLanguage(req.Metadata),
		Intelligence: session.Intelligence,
	}
	reply, providerName := e.agent.Reply(ctx, replyReq)

	notes := e.agent.BuildNotes(replyReq, providerName)
	session.AgentNotes = append(session.AgentNotes, notes)

	now := time.Now()
	scammerTS := now
	if req.Message.Timestamp != nil {
		scammerTS = *req.Message.Timestamp
	}
	capReached := e.store.RecordTurn(session,
		models.MessageTurn{Sender: models.SenderScammer, Text: text, Timestamp: scammerTS},
		models.MessageTurn{Sender: models.SenderUser, Text: reply, Timestamp: now},
	)
	if capReached {
		e.logger.Info().
			Str("session_id", session.ID).
			Int("message_count", session.MessageCount).
			Msg("Message cap reached, completing session")
		e.store.CompleteLocked(session)
	}

	e.logger.Info().
		Str("session_id", session.ID).
		Bool("scam_detected", session.ScamDetected).
		Str("provider", providerName).
		Int("message_count", session.MessageCount).
		Msg("Turn processed")

	return &models.EngageResponse{
		Status:        "success",
		ScamDetected:  session.ScamDetected,
		AgentResponse: reply,
		EngagementMetrics: models.EngagementMetrics{
			EngagementDurationSeconds: int(session.EngagementDuration().Seconds()),
			TotalMessagesExchanged:    session.MessageCount,
		},
		ExtractedIntelligence: cloneReport(session.Intelligence),
		AgentNotes:            notes,
		SessionActive:         !session.Status.Terminal(),
	}, nil
}

// Complete explicitly finalizes a session, firing the callback at most
// once. Idempotent.
func (e *EngagementService) Complete(sessionID string) (*models.Session, error) {
	return e.store.Complete(sessionID)
}

// Session returns a snapshot for the read endpoints
func (e *EngagementService) Session(sessionID string) (*models.Session, error) {
	return e.store.Get(sessionID)
}

// Stats returns service counters
func (e *EngagementService) Stats() models.SessionStats {
	return e.store.Stats()
}

// seedFromHistory extracts intelligence from caller-supplied prior turns.
// The turns are not appended to the conversation; the store remains
// authoritative for turn ordering.
func (e *EngagementService) seedFromHistory(session *models.Session, history []models.InboundMessage) {
	for _, msg := range history {
		if strings.EqualFold(msg.Sender, string(models.SenderUser)) {
			continue
		}
		session.Intelligence = e.extractor.Extract(session.Intelligence, msg.Text)
	}
}

func requestLanguage(meta models.EngageMetadata) string {
	if meta.Language != "" {
		return meta.Language
	}
	return meta.Locale
}

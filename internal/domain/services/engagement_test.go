package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/domain/services/ai"
	"honeytrap-lab/pkg/logger"
)

type fakeEvents struct {
	mu        sync.Mutex
	started   []string
	completed []string
}

func (f *fakeEvents) SessionStarted(s *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, s.ID)
}

func (f *fakeEvents) SessionCompleted(s *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, s.ID)
}

// newTestEngagement wires the full pipeline with no provider keys, so
// replies always come from the template fallback.
func newTestEngagement(maxMessages int, sink CompletionSink, events SessionEventPublisher) *EngagementService {
	log := logger.NewDefault()
	store := NewSessionStore(SessionStoreConfig{
		Timeout:     30 * time.Minute,
		MaxMessages: maxMessages,
	}, log, sink)
	orchestrator := ai.NewOrchestrator(log, time.Second)
	return NewEngagementService(
		store,
		NewDetector(log, 0.4),
		NewExtractor(log),
		ai.NewAgent(log, orchestrator),
		events,
		log,
	)
}

func scamTurn(sessionID, text string) models.EngageRequest {
	return models.EngageRequest{
		SessionID: sessionID,
		Message:   models.InboundMessage{Sender: "scammer", Text: text},
	}
}

func TestHandleTurnScamFlow(t *testing.T) {
	events := &fakeEvents{}
	e := newTestEngagement(25, nil, events)

	resp, err := e.HandleTurn(context.Background(),
		scamTurn("flow-1", "Your account will be blocked today. Share your OTP and UPI ID scammer@ybl immediately. Call 9876543210."))
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if !resp.ScamDetected {
		t.Error("scam not detected")
	}
	if resp.AgentResponse == "" {
		t.Error("empty agent response")
	}
	if resp.EngagementMetrics.TotalMessagesExchanged != 2 {
		t.Errorf("TotalMessagesExchanged = %d, want 2", resp.EngagementMetrics.TotalMessagesExchanged)
	}
	if !resp.SessionActive {
		t.Error("session should remain active")
	}

	intel := resp.ExtractedIntelligence
	if len(intel.UPIIDs) != 1 || intel.UPIIDs[0] != "scammer@ybl" {
		t.Errorf("UPIIDs = %v", intel.UPIIDs)
	}
	if len(intel.PhoneNumbers) != 1 || intel.PhoneNumbers[0] != "+919876543210" {
		t.Errorf("PhoneNumbers = %v", intel.PhoneNumbers)
	}

	if len(events.started) != 1 || events.started[0] != "flow-1" {
		t.Errorf("started events = %v", events.started)
	}
}

func TestHandleTurnBenignFlow(t *testing.T) {
	e := newTestEngagement(25, nil, nil)

	resp, err := e.HandleTurn(context.Background(), scamTurn("benign-1", "Hello, how are you?"))
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if resp.ScamDetected {
		t.Error("benign greeting flagged as scam")
	}
	if resp.AgentResponse == "" {
		t.Error("empty agent response for benign turn")
	}
}

func TestHandleTurnScamFlagSticks(t *testing.T) {
	e := newTestEngagement(25, nil, nil)
	ctx := context.Background()

	if _, err := e.HandleTurn(ctx, scamTurn("sticky-1", "Share your OTP now or your account will be blocked")); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	resp, err := e.HandleTurn(ctx, scamTurn("sticky-1", "ok take your time"))
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if !resp.ScamDetected {
		t.Error("scam flag did not persist across turns")
	}
}

func TestHandleTurnMessageCapCompletes(t *testing.T) {
	sink := &fakeSink{}
	e := newTestEngagement(4, sink, nil)
	ctx := context.Background()

	if _, err := e.HandleTurn(ctx, scamTurn("cap-1", "Share your OTP immediately")); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	resp, err := e.HandleTurn(ctx, scamTurn("cap-1", "Send it now or account blocked"))
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if resp.SessionActive {
		t.Error("session still active after hitting message cap")
	}
	if sink.count() != 1 {
		t.Errorf("callback fired %d times, want once", sink.count())
	}

	_, err = e.HandleTurn(ctx, scamTurn("cap-1", "hello?"))
	if !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("turn after cap: err = %v, want ErrSessionTerminal", err)
	}
}

func TestHandleTurnSeedsFromHistory(t *testing.T) {
	e := newTestEngagement(25, nil, nil)

	req := models.EngageRequest{
		SessionID: "seed-1",
		Message:   models.InboundMessage{Sender: "scammer", Text: "Did you pay yet?"},
		ConversationHistory: []models.InboundMessage{
			{Sender: "scammer", Text: "Send the fee to oldhandle@paytm"},
			{Sender: "user", Text: "My own id is victim@ybl"},
		},
	}

	resp, err := e.HandleTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	upis := resp.ExtractedIntelligence.UPIIDs
	if len(upis) != 1 || upis[0] != "oldhandle@paytm" {
		t.Errorf("UPIIDs = %v, want scammer history only", upis)
	}
}

func TestHandleTurnIntelligenceAccumulates(t *testing.T) {
	e := newTestEngagement(25, nil, nil)
	ctx := context.Background()

	first, err := e.HandleTurn(ctx, scamTurn("acc-1", "Pay to first@ybl immediately"))
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := e.HandleTurn(ctx, scamTurn("acc-1", "Or use second@paytm, call 9876543210"))
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if len(first.ExtractedIntelligence.UPIIDs) != 1 {
		t.Errorf("first turn UPIIDs = %v", first.ExtractedIntelligence.UPIIDs)
	}
	got := second.ExtractedIntelligence.UPIIDs
	if len(got) != 2 || got[0] != "first@ybl" || got[1] != "second@paytm" {
		t.Errorf("accumulated UPIIDs = %v, want [first@ybl second@paytm]", got)
	}
}

func TestCompleteReturnsFinalSnapshot(t *testing.T) {
	e := newTestEngagement(25, nil, nil)

	if _, err := e.HandleTurn(context.Background(), scamTurn("fin-1", "Share OTP now, account blocked")); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	session, err := e.Complete("fin-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("status = %s, want completed", session.Status)
	}
	if session.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

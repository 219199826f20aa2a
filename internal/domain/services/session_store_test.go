package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

type fakeSink struct {
	mu       sync.Mutex
	payloads []models.CallbackPayload
}

func (f *fakeSink) Enqueue(payload models.CallbackPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func testPersona(sessionID string) models.Persona {
	return models.Persona{Name: "Ramesh Kumar", Age: 58, Occupation: "retired teacher"}
}

func newTestStore(sink CompletionSink) *SessionStore {
	return NewSessionStore(SessionStoreConfig{
		Timeout:     30 * time.Minute,
		MaxMessages: 4,
	}, logger.NewDefault(), sink)
}

func turn(sender models.Sender, text string) models.MessageTurn {
	return models.MessageTurn{Sender: sender, Text: text, Timestamp: time.Now()}
}

func TestAcquireCreatesOnce(t *testing.T) {
	store := newTestStore(nil)

	s1, release1, created1, err := store.Acquire("sess-1", testPersona)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !created1 {
		t.Error("first Acquire should report created")
	}
	persona := s1.Persona
	release1()

	s2, release2, created2, err := store.Acquire("sess-1", testPersona)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	defer release2()
	if created2 {
		t.Error("second Acquire should not report created")
	}
	if s2.Persona != persona {
		t.Error("persona changed across acquisitions")
	}
}

func TestRecordTurnMessageCount(t *testing.T) {
	store := newTestStore(nil)

	session, release, _, err := store.Acquire("sess-count", testPersona)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	capReached := store.RecordTurn(session,
		turn(models.SenderScammer, "share your otp"),
		turn(models.SenderUser, "which otp?"))
	if capReached {
		t.Error("cap reported after one pair with MaxMessages 4")
	}
	if session.MessageCount != 2 || len(session.Conversation) != 2 {
		t.Errorf("MessageCount = %d, conversation length %d, want both 2",
			session.MessageCount, len(session.Conversation))
	}

	capReached = store.RecordTurn(session,
		turn(models.SenderScammer, "the bank otp"),
		turn(models.SenderUser, "let me find my glasses"))
	if !capReached {
		t.Error("cap not reported at MaxMessages")
	}
	if session.MessageCount != 4 {
		t.Errorf("MessageCount = %d, want 4", session.MessageCount)
	}
}

func TestCompleteFiresCallbackOnce(t *testing.T) {
	sink := &fakeSink{}
	store := newTestStore(sink)

	session, release, _, err := store.Acquire("sess-cb", testPersona)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	store.MarkScamDetected(session, models.DetectionVerdict{IsScam: true, Confidence: 0.8, ScamType: "Banking/UPI Fraud"})
	store.RecordTurn(session,
		turn(models.SenderScammer, "send money"),
		turn(models.SenderUser, "how?"))
	release()

	if _, err := store.Complete("sess-cb"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := store.Complete("sess-cb"); err != nil {
		t.Fatalf("second Complete: %v", err)
	}

	if sink.count() != 1 {
		t.Errorf("callback fired %d times, want exactly once", sink.count())
	}

	payload := sink.payloads[0]
	if payload.SessionID != "sess-cb" || !payload.ScamDetected || payload.TotalMessagesExchanged != 2 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestCompleteIdempotentState(t *testing.T) {
	store := newTestStore(nil)

	_, release, _, _ := store.Acquire("sess-idem", testPersona)
	release()

	first, err := store.Complete("sess-idem")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	second, err := store.Complete("sess-idem")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}

	if first.Status != models.SessionStatusCompleted || second.Status != models.SessionStatusCompleted {
		t.Errorf("statuses = %s, %s, want completed", first.Status, second.Status)
	}
	if !first.CompletedAt.Equal(*second.CompletedAt) {
		t.Error("CompletedAt changed on repeated Complete")
	}
}

func TestAcquireRejectsTerminalSession(t *testing.T) {
	store := newTestStore(nil)

	_, release, _, _ := store.Acquire("sess-term", testPersona)
	release()
	if _, err := store.Complete("sess-term"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, _, _, err := store.Acquire("sess-term", testPersona)
	if !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("Acquire on completed session: err = %v, want ErrSessionTerminal", err)
	}
}

func TestLazyExpiry(t *testing.T) {
	sink := &fakeSink{}
	store := NewSessionStore(SessionStoreConfig{
		Timeout:     10 * time.Millisecond,
		MaxMessages: 25,
	}, logger.NewDefault(), sink)

	session, release, _, _ := store.Acquire("sess-exp", testPersona)
	session.LastActivityAt = time.Now().Add(-time.Minute)
	release()

	_, _, _, err := store.Acquire("sess-exp", testPersona)
	if !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("Acquire on stale session: err = %v, want ErrSessionTerminal", err)
	}

	got, err := store.Get("sess-exp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.SessionStatusExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
	if sink.count() != 1 {
		t.Errorf("expiry fired callback %d times, want once", sink.count())
	}
}

func TestGetUnknownSession(t *testing.T) {
	store := newTestStore(nil)

	if _, err := store.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get unknown: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Complete("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Complete unknown: err = %v, want ErrSessionNotFound", err)
	}
}

func TestMarkScamDetectedKeepsFirstType(t *testing.T) {
	store := newTestStore(nil)

	session, release, _, _ := store.Acquire("sess-mark", testPersona)
	defer release()

	store.MarkScamDetected(session, models.DetectionVerdict{IsScam: true, Confidence: 0.6, ScamType: "Banking/UPI Fraud"})
	store.MarkScamDetected(session, models.DetectionVerdict{IsScam: true, Confidence: 0.9, ScamType: "Phishing Scam"})
	store.MarkScamDetected(session, models.DetectionVerdict{IsScam: true, Confidence: 0.5, ScamType: "Generic Scam"})

	if session.ScamType != "Banking/UPI Fraud" {
		t.Errorf("ScamType = %q, want first verdict kept", session.ScamType)
	}
	if session.ScamConfidence != 0.9 {
		t.Errorf("ScamConfidence = %.2f, want 0.9 (monotone max)", session.ScamConfidence)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	store := newTestStore(nil)

	session, release, _, _ := store.Acquire("sess-snap", testPersona)
	store.RecordTurn(session,
		turn(models.SenderScammer, "hello"),
		turn(models.SenderUser, "hello ji"))
	release()

	snap, err := store.Get("sess-snap")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	snap.Conversation[0].Text = "mutated"
	snap.Intelligence.UPIIDs = append(snap.Intelligence.UPIIDs, "x@ybl")

	fresh, _ := store.Get("sess-snap")
	if fresh.Conversation[0].Text != "hello" {
		t.Error("snapshot mutation leaked into the store")
	}
	if len(fresh.Intelligence.UPIIDs) != 0 {
		t.Error("snapshot intelligence mutation leaked into the store")
	}
}

func TestStatsCounters(t *testing.T) {
	store := newTestStore(nil)

	s1, release1, _, _ := store.Acquire("sess-a", testPersona)
	store.MarkScamDetected(s1, models.DetectionVerdict{IsScam: true, Confidence: 0.7})
	store.RecordTurn(s1, turn(models.SenderScammer, "hi"), turn(models.SenderUser, "hi"))
	release1()

	_, release2, _, _ := store.Acquire("sess-b", testPersona)
	release2()
	store.Complete("sess-b")

	stats := store.Stats()
	if stats.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", stats.TotalSessions)
	}
	if stats.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", stats.ActiveSessions)
	}
	if stats.CompletedSessions != 1 {
		t.Errorf("CompletedSessions = %d, want 1", stats.CompletedSessions)
	}
	if stats.ScamsDetected != 1 {
		t.Errorf("ScamsDetected = %d, want 1", stats.ScamsDetected)
	}
	if stats.MessagesProcessed != 1 {
		t.Errorf("MessagesProcessed = %d, want 1", stats.MessagesProcessed)
	}
}

func TestNotesSummary(t *testing.T) {
	s := &models.Session{}
	if got := s.NotesSummary(); got != "No engagement notes recorded" {
		t.Errorf("empty NotesSummary = %q", got)
	}

	s.AgentNotes = []string{"n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	want := "n3 | n4 | n5 | n6 | n7"
	if got := s.NotesSummary(); got != want {
		t.Errorf("NotesSummary = %q, want %q", got, want)
	}
}

func TestCompleteLockedUnderConcurrentStatsAndCreate(t *testing.T) {
	sink := &fakeSink{}
	store := newTestStore(sink)

	// Hold the entry lock the way the turn pipeline does via Acquire.
	session, release, _, err := store.Acquire("sess-held", testPersona)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Stats must not hold the store lock while it waits for the held
	// entry; a concurrent create then queues a writer behind it.
	statsDone := make(chan struct{})
	go func() {
		store.Stats()
		close(statsDone)
	}()
	time.Sleep(50 * time.Millisecond)

	createDone := make(chan struct{})
	go func() {
		_, rel, _, err := store.Acquire("sess-new", testPersona)
		if err == nil {
			rel()
		}
		close(createDone)
	}()
	time.Sleep(50 * time.Millisecond)

	completeDone := make(chan struct{})
	go func() {
		store.CompleteLocked(session)
		close(completeDone)
	}()

	select {
	case <-completeDone:
	case <-time.After(3 * time.Second):
		t.Fatal("CompleteLocked blocked while Stats and a session create were in flight")
	}
	release()

	for name, ch := range map[string]chan struct{}{"Stats": statsDone, "create": createDone} {
		select {
		case <-ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("%s did not finish after release", name)
		}
	}

	if got := sink.count(); got != 1 {
		t.Errorf("callbacks fired = %d, want 1", got)
	}
}

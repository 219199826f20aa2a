package services

import (
	"errors"
	"sync"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

var (
	// ErrSessionNotFound is returned for lookups of unknown session IDs
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionTerminal is returned when a turn targets a completed or
	// expired session
	ErrSessionTerminal = errors.New("session closed")
)

// CompletionSink receives the final payload of a completed session.
// Delivery is fire-and-forget relative to the request path.
type CompletionSink interface {
	Enqueue(payload models.CallbackPayload)
}

// SessionStoreConfig bounds session lifetime and engagement length
type SessionStoreConfig struct {
	Timeout         time.Duration
	MaxMessages     int
	CleanupInterval time.Duration
}

// SessionStore is the in-memory registry of engagement sessions. Turns
// against the same session are serialized through a per-entry mutex;
// different sessions proceed in parallel. Expiry is evaluated lazily on
// access and by a background janitor.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	cfg        SessionStoreConfig
	logger     *logger.Logger
	sink       CompletionSink
	onFinalize func(*models.Session)

	statsMu sync.Mutex
	stats   models.SessionStats

	stopCh chan struct{}
	wg     sync.WaitGroup
}

type sessionEntry struct {
	mu            sync.Mutex
	session       *models.Session
	callbackFired bool
}

// NewSessionStore creates a session store. sink may be nil when no
// completion callback is configured.
func NewSessionStore(cfg SessionStoreConfig, log *logger.Logger, sink CompletionSink) *SessionStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 25
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		cfg:      cfg,
		logger:   log.WithComponent("session-store"),
		sink:     sink,
		stopCh:   make(chan struct{}),
	}
}

// OnFinalize registers a hook invoked once per session, with a snapshot,
// after it reaches a terminal state. Used for event publishing and
// archival; runs off the request path.
func (s *SessionStore) OnFinalize(fn func(*models.Session)) {
	s.onFinalize = fn
}

// Acquire returns the session for id, creating it with a fresh persona on
// first sight, and holds its per-session lock until release is called.
// An expired-but-unmarked session is transitioned to expired first and
// the turn rejected with ErrSessionTerminal.
func (s *SessionStore) Acquire(id string, newPersona func(string) models.Persona) (*models.Session, func(), bool, error) {
	entry, created := s.getOrCreateEntry(id, newPersona)
	entry.mu.Lock()

	if !created && s.lazyExpireLocked(entry) {
		entry.mu.Unlock()
		return nil, nil, false, ErrSessionTerminal
	}
	if entry.session.Status.Terminal() {
		entry.mu.Unlock()
		return nil, nil, false, ErrSessionTerminal
	}

	return entry.session, entry.mu.Unlock, created, nil
}

func (s *SessionStore) getOrCreateEntry(id string, newPersona func(string) models.Persona) (*sessionEntry, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return entry, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.sessions[id]; ok {
		return entry, false
	}

	now := time.Now()
	entry = &sessionEntry{
		session: &models.Session{
			ID:             id,
			Status:         models.SessionStatusActive,
			Persona:        newPersona(id),
			Conversation:   []models.MessageTurn{},
			Intelligence:   models.NewIntelligenceReport(),
			CreatedAt:      now,
			LastActivityAt: now,
		},
	}
	s.sessions[id] = entry

	s.statsMu.Lock()
	s.stats.TotalSessions++
	s.statsMu.Unlock()

	s.logger.Info().Str("session_id", id).Msg("Session created")
	return entry, true
}

// lazyExpireLocked transitions an idle-past-timeout session to expired.
// Caller holds entry.mu.
func (s *SessionStore) lazyExpireLocked(entry *sessionEntry) bool {
	if entry.session.Status != models.SessionStatusActive {
		return false
	}
	if time.Since(entry.session.LastActivityAt) <= s.cfg.Timeout {
		return false
	}
	s.finalizeLocked(entry, models.SessionStatusExpired)
	return true
}

// Get returns a snapshot of the session, applying lazy expiry first
func (s *SessionStore) Get(id string) (*models.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s.lazyExpireLocked(entry)
	return cloneSession(entry.session), nil
}

// RecordTurn appends a scammer/agent turn pair and updates counters.
// Caller must hold the session via Acquire. Returns true when the message
// cap has been reached and the session should complete.
func (s *SessionStore) RecordTurn(session *models.Session, scammer, agent models.MessageTurn) bool {
	session.Conversation = append(session.Conversation, scammer, agent)
	session.MessageCount = len(session.Conversation)
	if agent.Timestamp.After(session.LastActivityAt) {
		session.LastActivityAt = agent.Timestamp
	}

	s.statsMu.Lock()
	s.stats.MessagesProcessed++
	s.statsMu.Unlock()

	return session.MessageCount >= s.cfg.MaxMessages
}

// MarkScamDetected flags the session after its first positive verdict
func (s *SessionStore) MarkScamDetected(session *models.Session, verdict models.DetectionVerdict) {
	if session.ScamDetected {
		if verdict.Confidence > session.ScamConfidence {
			session.ScamConfidence = verdict.Confidence
		}
		return
	}
	session.ScamDetected = true
	session.ScamConfidence = verdict.Confidence
	session.ScamType = verdict.ScamType

	s.statsMu.Lock()
	s.stats.ScamsDetected++
	s.statsMu.Unlock()
}

// Complete transitions the session to completed and enqueues the final
// callback. Idempotent: completing an already-terminal session returns
// its prior state without re-firing the callback.
func (s *SessionStore) Complete(id string) (*models.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.Status.Terminal() {
		return cloneSession(entry.session), nil
	}
	s.finalizeLocked(entry, models.SessionStatusCompleted)
	return cloneSession(entry.session), nil
}

// CompleteLocked finalizes a session already held via Acquire, used by
// the turn pipeline when the message cap is reached. The entry lookup
// nests s.mu inside the caller's entry.mu; no path may lock in the
// reverse order.
func (s *SessionStore) CompleteLocked(session *models.Session) {
	s.mu.RLock()
	entry, ok := s.sessions[session.ID]
	s.mu.RUnlock()
	if !ok || entry.session != session || session.Status.Terminal() {
		return
	}
	s.finalizeLocked(entry, models.SessionStatusCompleted)
}

// finalizeLocked moves the session to a terminal state and fires the
// completion callback at most once. Caller holds entry.mu.
func (s *SessionStore) finalizeLocked(entry *sessionEntry, status models.SessionStatus) {
	now := time.Now()
	entry.session.Status = status
	entry.session.CompletedAt = &now

	s.statsMu.Lock()
	switch status {
	case models.SessionStatusCompleted:
		s.stats.CompletedSessions++
	case models.SessionStatusExpired:
		s.stats.ExpiredSessions++
	}
	s.statsMu.Unlock()

	s.logger.Info().
		Str("session_id", entry.session.ID).
		Str("status", string(status)).
		Int("message_count", entry.session.MessageCount).
		Bool("scam_detected", entry.session.ScamDetected).
		Msg("Session finalized")

	if entry.callbackFired {
		return
	}
	if s.onFinalize != nil {
		go s.onFinalize(cloneSession(entry.session))
	}
	if s.sink == nil {
		entry.callbackFired = true
		return
	}
	entry.callbackFired = true

	s.sink.Enqueue(entry.session.FinalPayload())

	s.statsMu.Lock()
	s.stats.CallbacksQueued++
	s.statsMu.Unlock()
}

// Stats returns service-level counters. The entries map is snapshotted
// before any per-entry lock is taken: s.mu must never be held while
// waiting on an entry.mu, since the turn pipeline locks in the opposite
// order (entry.mu first, then s.mu in CompleteLocked).
func (s *SessionStore) Stats() models.SessionStats {
	s.statsMu.Lock()
	stats := s.stats
	s.statsMu.Unlock()

	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	for _, entry := range entries {
		entry.mu.Lock()
		if entry.session.Status == models.SessionStatusActive {
			stats.ActiveSessions++
		}
		entry.mu.Unlock()
	}

	return stats
}

// StartJanitor launches the background sweep that expires idle sessions
// and drops terminal ones after a grace period
func (s *SessionStore) StartJanitor() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the janitor
func (s *SessionStore) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *SessionStore) sweep() {
	grace := 2 * s.cfg.Timeout

	s.mu.RLock()
	entries := make(map[string]*sessionEntry, len(s.sessions))
	for id, entry := range s.sessions {
		entries[id] = entry
	}
	s.mu.RUnlock()

	var removable []string
	for id, entry := range entries {
		entry.mu.Lock()
		s.lazyExpireLocked(entry)
		if entry.session.Status.Terminal() && time.Since(entry.session.LastActivityAt) > grace {
			removable = append(removable, id)
		}
		entry.mu.Unlock()
	}

	if len(removable) == 0 {
		return
	}
	s.mu.Lock()
	for _, id := range removable {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	s.logger.Debug().Int("removed", len(removable)).Msg("Janitor sweep removed stale sessions")
}

func cloneSession(src *models.Session) *models.Session {
	clone := *src
	clone.Conversation = append([]models.MessageTurn{}, src.Conversation...)
	clone.AgentNotes = append([]string{}, src.AgentNotes...)
	clone.Intelligence = cloneReport(src.Intelligence)
	if src.CompletedAt != nil {
		t := *src.CompletedAt
		clone.CompletedAt = &t
	}
	return &clone
}

func cloneReport(src models.IntelligenceReport) models.IntelligenceReport {
	return models.IntelligenceReport{
		BankAccounts:       append([]string{}, src.BankAccounts...),
		UPIIDs:             append([]string{}, src.UPIIDs...),
		PhoneNumbers:       append([]string{}, src.PhoneNumbers...),
		Emails:             append([]string{}, src.Emails...),
		PhishingLinks:      append([]string{}, src.PhishingLinks...),
		SuspiciousKeywords: append([]string{}, src.SuspiciousKeywords...),
	}
}

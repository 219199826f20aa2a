package streaming

import (
	"context"
	"sync"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// EventBus fans session lifecycle events out to NATS and any local
// in-process subscribers. The NATS publisher is optional; when it is
// nil events are only delivered locally.
type EventBus struct {
	nats   *NATSPublisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]chan *SessionEvent
	closed      bool
}

// NewEventBus creates a new event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		logger:      log.WithComponent("eventbus"),
		subscribers: make(map[string]chan *SessionEvent),
	}
}

// Subscribe registers a local subscriber. The returned channel receives
// events until Unsubscribe is called; slow subscribers drop events.
func (b *EventBus) Subscribe(id string) <-chan *SessionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *SessionEvent, 64)
	b.subscribers[id] = ch
	return ch
}

// Unsubscribe removes a local subscriber
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// SessionStarted publishes a session.started event
func (b *EventBus) SessionStarted(session *models.Session) {
	b.publish(NewSessionEvent(EventSessionStarted, session))
}

// SessionCompleted publishes a session.completed event
func (b *EventBus) SessionCompleted(session *models.Session) {
	b.publish(NewSessionEvent(EventSessionCompleted, session))
}

func (b *EventBus) publish(event *SessionEvent) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn().Str("subscriber", id).Msg("subscriber channel full, event dropped")
		}
	}
	b.mu.RUnlock()

	if b.nats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.nats.PublishSessionEvent(ctx, event); err != nil {
		b.logger.Error().Err(err).
			Str("type", string(event.Type)).
			Str("session_id", event.SessionID).
			Msg("failed to publish session event")
	}
}

// Close shuts down the event bus and the underlying NATS connection
func (b *EventBus) Close() {
	b.mu.Lock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if b.nats != nil {
		b.nats.Close()
	}
}

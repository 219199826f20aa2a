package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func testPayload() models.CallbackPayload {
	return models.CallbackPayload{
		SessionID:              "sess-42",
		ScamDetected:           true,
		TotalMessagesExchanged: 6,
		ExtractedIntelligence: models.IntelligenceReport{
			UPIIDs:       []string{"scammer@ybl"},
			PhoneNumbers: []string{"+919876543210"},
		},
		AgentNotes: "AI Provider: template. Persona: Ramesh Kumar, 58yo retired teacher.",
	}
}

func TestCallbackDelivery(t *testing.T) {
	received := make(chan models.CallbackPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer cb-token" {
			t.Errorf("Authorization = %q", got)
		}
		var payload models.CallbackPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewCallbackDispatcher(CallbackDispatcherConfig{
		URL:        server.URL,
		AuthHeader: "Bearer cb-token",
		Workers:    1,
		MaxRetries: 0,
		Timeout:    2 * time.Second,
	}, logger.NewDefault())
	d.Start()
	defer d.Stop()

	d.Enqueue(testPayload())

	select {
	case payload := <-received:
		if payload.SessionID != "sess-42" {
			t.Errorf("sessionId = %q", payload.SessionID)
		}
		if !payload.ScamDetected || payload.TotalMessagesExchanged != 6 {
			t.Errorf("unexpected payload: %+v", payload)
		}
		if len(payload.ExtractedIntelligence.UPIIDs) != 1 {
			t.Errorf("intelligence not round-tripped: %+v", payload.ExtractedIntelligence)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback not delivered")
	}
}

func TestCallbackPayloadJSONShape(t *testing.T) {
	body, err := json.Marshal(testPayload())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"sessionId", "scamDetected", "totalMessagesExchanged", "extractedIntelligence", "agentNotes"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing key %q: %s", key, body)
		}
	}

	intel, ok := raw["extractedIntelligence"].(map[string]any)
	if !ok {
		t.Fatalf("extractedIntelligence not an object: %s", body)
	}
	for _, key := range []string{"bankAccounts", "upiIds", "phoneNumbers", "emails", "phishingLinks", "suspiciousKeywords"} {
		if _, ok := intel[key]; !ok {
			t.Errorf("intelligence missing key %q: %s", key, body)
		}
	}
}

func TestCallbackQueueFullDrops(t *testing.T) {
	// No workers running: the queue fills and later payloads are dropped
	// without blocking the caller.
	d := NewCallbackDispatcher(CallbackDispatcherConfig{
		URL:       "http://127.0.0.1:0/never",
		QueueSize: 1,
	}, logger.NewDefault())

	done := make(chan struct{})
	go func() {
		d.Enqueue(testPayload())
		d.Enqueue(testPayload())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestCallbackRetryAfterFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewCallbackDispatcher(CallbackDispatcherConfig{
		URL:        server.URL,
		Workers:    1,
		MaxRetries: 2,
		Timeout:    2 * time.Second,
	}, logger.NewDefault())
	d.Start()
	defer d.Stop()

	d.Enqueue(testPayload())

	deadline := time.After(6 * time.Second)
	for atomic.LoadInt32(&calls) < 2 {
		select {
		case <-deadline:
			t.Fatalf("delivery not retried, calls = %d", atomic.LoadInt32(&calls))
		case <-time.After(50 * time.Millisecond):
		}
	}
}

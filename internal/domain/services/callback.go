package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// CallbackDispatcherConfig configures final-result delivery
type CallbackDispatcherConfig struct {
	URL        string
	AuthHeader string
	Workers    int
	QueueSize  int
	MaxRetries int
	Timeout    time.Duration
}

// DefaultCallbackConfig returns sensible dispatcher defaults
func DefaultCallbackConfig() CallbackDispatcherConfig {
	return CallbackDispatcherConfig{
		Workers:    2,
		QueueSize:  256,
		MaxRetries: 3,
		Timeout:    10 * time.Second,
	}
}

// CallbackDispatcher delivers session completion payloads to the external
// evaluator through a background worker pool. Delivery failures are
// retried with backoff and ultimately only logged; they never propagate
// to the request path.
type CallbackDispatcher struct {
	cfg        CallbackDispatcherConfig
	logger     *logger.Logger
	httpClient *http.Client

	queue  chan *callbackJob
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type callbackJob struct {
	payload  models.CallbackPayload
	attempts int
}

// NewCallbackDispatcher creates a dispatcher. Call Start before enqueuing.
func NewCallbackDispatcher(cfg CallbackDispatcherConfig, log *logger.Logger) *CallbackDispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CallbackDispatcher{
		cfg:        cfg,
		logger:     log.WithComponent("callback-dispatcher"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		queue:      make(chan *callbackJob, cfg.QueueSize),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the delivery workers
func (d *CallbackDispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.deliveryWorker(i)
	}
}

// Stop signals workers to drain and waits for them
func (d *CallbackDispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// Enqueue queues a payload for delivery. Non-blocking: a full queue drops
// the payload with a log line rather than stalling the caller.
func (d *CallbackDispatcher) Enqueue(payload models.CallbackPayload) {
	select {
	case d.queue <- &callbackJob{payload: payload}:
		d.logger.Info().
			Str("session_id", payload.SessionID).
			Bool("scam_detected", payload.ScamDetected).
			Int("messages", payload.TotalMessagesExchanged).
			Msg("Callback queued")
	default:
		d.logger.Error().
			Str("session_id", payload.SessionID).
			Msg("Callback queue full, payload dropped")
	}
}

func (d *CallbackDispatcher) deliveryWorker(id int) {
	defer d.wg.Done()
	log := d.logger.WithFields(map[string]any{"worker": id})
	for {
		select {
		case job := <-d.queue:
			d.processDelivery(log, job)
		case <-d.stopCh:
			return
		}
	}
}

func (d *CallbackDispatcher) processDelivery(log *logger.Logger, job *callbackJob) {
	job.attempts++

	err := d.deliver(job.payload)
	if err == nil {
		log.Info().
			Str("session_id", job.payload.SessionID).
			Int("attempt", job.attempts).
			Msg("Callback delivered")
		return
	}

	if job.attempts <= d.cfg.MaxRetries {
		delay := time.Duration(job.attempts) * 2 * time.Second
		log.Warn().
			Err(err).
			Str("session_id", job.payload.SessionID).
			Int("attempt", job.attempts).
			Dur("retry_in", delay).
			Msg("Callback delivery failed, retry scheduled")

		go func() {
			select {
			case <-time.After(delay):
				select {
				case d.queue <- job:
				case <-d.stopCh:
				}
			case <-d.stopCh:
			}
		}()
		return
	}

	log.Error().
		Err(err).
		Str("session_id", job.payload.SessionID).
		Int("attempts", job.attempts).
		Msg("Callback delivery abandoned")
}

func (d *CallbackDispatcher) deliver(payload models.CallbackPayload) error {
	if d.cfg.URL == "" {
		return fmt.Errorf("callback URL not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", d.cfg.URL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.AuthHeader != "" {
		req.Header.Set("Authorization", d.cfg.AuthHeader)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("callback endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

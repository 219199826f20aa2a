package ai

import (
	"context"
	"strings"
	"time"

	"honeytrap-lab/pkg/logger"
)

// Orchestrator tries providers in declared priority order with a per-call
// timeout and fallthrough on any failure. Provider choice is recomputed on
// every call; a transient outage never sticks to later turns.
type Orchestrator struct {
	providers []Provider
	timeout   time.Duration
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given providers
func NewOrchestrator(log *logger.Logger, timeout time.Duration, providers ...Provider) *Orchestrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{
		providers: providers,
		timeout:   timeout,
		logger:    log.WithComponent("provider-orchestrator"),
	}
}

// Generate returns the first acceptable provider output and the name of
// the provider that produced it. Output must be non-empty and must not
// merely echo the scammer's last turn. Returns ErrNoProviderOutput when
// every provider fails.
func (o *Orchestrator) Generate(ctx context.Context, prompt Prompt, lastScammerText string) (string, string, error) {
	for _, provider := range o.providers {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		reply, err := provider.Generate(callCtx, prompt)
		cancel()

		if err != nil {
			o.logger.Debug().
				Str("provider", provider.Name()).
				Err(err).
				Msg("Provider failed, falling through")
			continue
		}
		if !acceptable(reply, lastScammerText) {
			o.logger.Debug().
				Str("provider", provider.Name()).
				Msg("Provider output rejected, falling through")
			continue
		}

		return reply, provider.Name(), nil
	}

	return "", "", ErrNoProviderOutput
}

// acceptable rejects empty output and verbatim echoes of the scammer turn
func acceptable(reply, lastScammerText string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	if strings.EqualFold(trimmed, strings.TrimSpace(lastScammerText)) {
		return false
	}
	return true
}

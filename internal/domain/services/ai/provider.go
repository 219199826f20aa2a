package ai

import (
	"context"
	"errors"
)

// ErrNoProviderOutput is returned by the orchestrator when every
// configured provider failed or none are configured. Callers map it to
// the template fallback.
var ErrNoProviderOutput = errors.New("no provider produced output")

// Prompt is one generation request. System carries the persona and stage
// instructions; Conversation is the formatted history ending with the
// scammer's latest turn.
type Prompt struct {
	System       string
	Conversation string
}

// Provider is a single text-generation backend. Implementations are
// stateless; every call is independent.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

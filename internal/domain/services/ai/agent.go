package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

const victimSystemPrompt = `You are playing the role of a potential scam victim. Your goal is to:

1. MAINTAIN PERSONA: You are %s, a %d-year-old %s from %s.
   You are %s tech-savvy and currently feeling %s.

2. BEHAVIOR GUIDELINES:
   - Act confused and worried, like a real potential victim would
   - Ask questions to make the scammer reveal more information
   - NEVER reveal that you know this is a scam
   - Show hesitation but eventually comply (without giving real info)
   - Stall for time by asking for clarifications
   - Provide FAKE information when pressed (fake OTPs, wrong account numbers)

3. INTELLIGENCE GATHERING:
   - Ask for their bank account details for "verification"
   - Request their UPI ID to "transfer money"
   - Ask for their phone number/WhatsApp for "easier communication"
   - Get them to share links by asking "where should I click?"
   - Ask for employee ID, company name, etc.

4. RESPONSE STYLE:
   - Keep responses short and natural (1-3 sentences usually)
   - Use simple language appropriate for someone who is not tech-savvy
   - Use polite expressions like "please help", "thank you"
   - Show emotional responses like worry, fear, or gratitude

5. TEXT MESSAGE FORMAT:
   - This is a TEXT/SMS conversation, NOT a phone call
   - Never use spoken artifacts like (pauses), (thinking), (checking)
   - Never read out numbers digit by digit
   - Write complete, clean sentences like normal text messages

6. SAFETY RULES:
   - Never provide any REAL personal information
   - Never actually click links or transfer money
   - Stay in character throughout

Current conversation context:
- Scam type detected: %s
- Conversation stage: %s
- Messages exchanged: %d

Respond naturally as this character would. Keep the scammer engaged while extracting as much information as possible.`

const normalSystemPrompt = `You are replying to a message that has been identified as SAFE (not a scam).
Your goal is to reply naturally, politely, and briefly.

Guidelines:
- If the sender greets you, greet them back normally.
- If the sender gives safety advice (e.g. "Do not share OTP"), acknowledge it positively.
- If the message is unclear, ask for clarification politely.
- Do NOT act like a victim or sound worried.
- Speak in plain English.`

// supportedLanguages the agent can reply in; anything else falls back to
// English
var supportedLanguages = map[string]bool{
	"english": true,
	"hindi":   true,
	"tamil":   true,
}

// Agent produces the next persona-consistent reply for a session turn.
// Generation is delegated to the orchestrator; on total provider failure
// the deterministic template fallback is used instead. The agent never
// surfaces a generation failure to its caller.
type Agent struct {
	orchestrator *Orchestrator
	logger       *logger.Logger
}

// ReplyRequest carries everything the agent needs for one turn
type ReplyRequest struct {
	Persona      models.Persona
	History      []models.MessageTurn
	Incoming     string
	MessageCount int
	IsScam       bool
	ScamType     string
	Language     string
	Intelligence models.IntelligenceReport
}

// NewAgent creates an agent over the given orchestrator
func NewAgent(log *logger.Logger, orchestrator *Orchestrator) *Agent {
	return &Agent{
		orchestrator: orchestrator,
		logger:       log.WithComponent("agent"),
	}
}

// Stage derives the engagement stage from turn count and accumulated
// intelligence. Not stored; recomputed each turn.
func Stage(messageCount int, intel models.IntelligenceReport) models.EngagementStage {
	switch {
	case intel.HasPaymentIdentifiers() || messageCount >= 10:
		return models.StageDeceptiveCompliance
	case messageCount <= 2:
		return models.StageOpening
	case messageCount <= 5:
		return models.StageProbing
	default:
		return models.StageCompliantButSlow
	}
}

// Reply generates the agent's next turn and returns the reply text plus
// the name of the provider that produced it ("template" when all
// providers failed).
func (a *Agent) Reply(ctx context.Context, req ReplyRequest) (string, string) {
	language := NormalizeLanguage(req.Language)

	prompt := Prompt{
		System:       a.buildSystemPrompt(req, language),
		Conversation: formatConversation(req.History, req.Incoming),
	}

	reply, providerName, err := a.orchestrator.Generate(ctx, prompt, req.Incoming)
	if err == nil {
		return reply, providerName
	}
	if !errors.Is(err, ErrNoProviderOutput) {
		a.logger.Warn().Err(err).Msg("Generation failed, using template fallback")
	}

	if !req.IsScam {
		return SafeReply(req.MessageCount), "template"
	}
	stage := Stage(req.MessageCount, req.Intelligence)
	return TemplateReply(req.Incoming, req.MessageCount, stage, req.ScamType, language, req.Persona), "template"
}

// BuildNotes summarizes one interaction for the session's agent notes
func (a *Agent) BuildNotes(req ReplyRequest, providerName string) string {
	parts := []string{
		fmt.Sprintf("AI Provider: %s", providerName),
		fmt.Sprintf("Persona: %s, %dyo %s", req.Persona.Name, req.Persona.Age, req.Persona.Occupation),
	}
	if req.ScamType != "" {
		parts = append(parts, fmt.Sprintf("Scam type: %s", req.ScamType))
	}
	parts = append(parts,
		fmt.Sprintf("Message #%d in conversation", req.MessageCount),
		fmt.Sprintf("Language: %s", NormalizeLanguage(req.Language)),
	)
	return strings.Join(parts, ". ")
}

func (a *Agent) buildSystemPrompt(req ReplyRequest, language string) string {
	if !req.IsScam {
		return normalSystemPrompt
	}

	var stageDesc string
	switch Stage(req.MessageCount, req.Intelligence) {
	case models.StageOpening:
		stageDesc = "initial contact - show confusion and worry"
	case models.StageProbing:
		stageDesc = "building rapport - ask questions and show trust"
	case models.StageCompliantButSlow:
		stageDesc = "information gathering - probe for scammer details"
	default:
		stageDesc = "stalling and extraction - delay while getting more info"
	}

	scamType := req.ScamType
	if scamType == "" {
		scamType = "Generic Scam"
	}

	prompt := fmt.Sprintf(victimSystemPrompt,
		req.Persona.Name, req.Persona.Age, req.Persona.Occupation, req.Persona.Location,
		req.Persona.TechSavvy, req.Persona.EmotionalState,
		scamType, stageDesc, req.MessageCount,
	)

	if language != "english" {
		prompt += fmt.Sprintf("\n\nLANGUAGE: Respond in %s. Use the %s script/characters.", language, language)
	}
	return prompt
}

// NormalizeLanguage lowercases the requested language and falls back to
// English for anything unsupported
func NormalizeLanguage(language string) string {
	lower := strings.ToLower(strings.TrimSpace(language))
	if supportedLanguages[lower] {
		return lower
	}
	return "english"
}

// recentHistoryTurns caps how much history goes into the prompt; earlier
// turns are already reflected in the stage and scam type.
const recentHistoryTurns = 6

// formatConversation renders the most recent history plus the incoming
// turn in the shape the providers are prompted with
func formatConversation(history []models.MessageTurn, incoming string) string {
	if len(history) > recentHistoryTurns {
		history = history[len(history)-recentHistoryTurns:]
	}
	var b strings.Builder
	for _, turn := range history {
		if turn.Sender == models.SenderScammer {
			b.WriteString("Scammer: ")
		} else {
			b.WriteString("You: ")
		}
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString("Scammer: ")
	b.WriteString(incoming)
	b.WriteString("\nYour response:")
	return b.String()
}

package services

import (
	"strings"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// Detector scores inbound message turns against the pattern library.
// Pure function of text plus rule set; no I/O.
type Detector struct {
	logger    *logger.Logger
	lib       *PatternLibrary
	threshold float64
}

// NewDetector creates a detector with the given confidence threshold
func NewDetector(log *logger.Logger, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = 0.4
	}
	return &Detector{
		logger:    log.WithComponent("scam-detector"),
		lib:       Library(),
		threshold: threshold,
	}
}

// Detect classifies one message turn given the prior conversation.
// Empty or whitespace-only text is never a scam and never an error.
func (d *Detector) Detect(text string, history []models.MessageTurn) models.DetectionVerdict {
	if strings.TrimSpace(text) == "" {
		return models.DetectionVerdict{MatchedSignals: []string{}}
	}

	// Safety advice triggers the same lexical signals as a scam and is
	// overruled before any scoring.
	if d.lib.IsSafetyAdvice(text) {
		return models.DetectionVerdict{Confidence: 0.05, MatchedSignals: []string{}}
	}

	keywordWeight, keywords := d.lib.MatchKeywords(text)
	patterns := d.lib.MatchPatterns(text)
	asking := d.lib.IsAsking(text)

	keywordScore := min(keywordWeight/6.0, 1.0)
	patternScore := min(float64(len(patterns))*0.25, 1.0)
	contextScore := d.contextScore(history)

	score := keywordScore*0.5 + patternScore*0.35 + contextScore*0.15
	if asking {
		score += 0.2
	}
	if len(keywords) >= 3 && asking {
		score = max(score, 0.7)
	}
	score = min(score, 1.0)

	verdict := models.DetectionVerdict{
		IsScam:         score >= d.threshold,
		Confidence:     score,
		MatchedSignals: append(append([]string{}, keywords...), patterns...),
		KeywordHits:    keywords,
		PatternHits:    patterns,
	}
	if verdict.IsScam {
		verdict.ScamType = d.lib.ClassifyScamType(text)
	}

	d.logger.Debug().
		Bool("is_scam", verdict.IsScam).
		Float64("confidence", verdict.Confidence).
		Int("keyword_hits", len(keywords)).
		Int("pattern_hits", len(patterns)).
		Msg("Message classified")

	return verdict
}

// contextScore rewards escalating behavior across prior scammer turns:
// repeated threats and repeated requests for information.
func (d *Detector) contextScore(history []models.MessageTurn) float64 {
	if len(history) == 0 {
		return 0
	}

	var threats, requests int
	for _, turn := range history {
		if turn.Sender != models.SenderScammer {
			continue
		}
		lower := strings.ToLower(turn.Text)
		if containsAny(lower, "blocked", "suspended", "legal", "police") {
			threats++
		}
		if containsAny(lower, "share", "send", "provide", "give") {
			requests++
		}
	}

	var score float64
	if threats >= 2 {
		score += 0.2
	}
	if requests >= 2 {
		score += 0.15
	}
	return min(score, 0.3)
}

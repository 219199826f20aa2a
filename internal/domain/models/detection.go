package models

// DetectionVerdict is the per-turn scam classification result. It is
// derived from a single message and is not persisted beyond the response.
type DetectionVerdict struct {
	IsScam         bool     `json:"is_scam"`
	Confidence     float64  `json:"confidence"`
	ScamType       string   `json:"scam_type,omitempty"`
	MatchedSignals []string `json:"matched_signals,omitempty"`
	KeywordHits    []string `json:"keyword_hits,omitempty"`
	PatternHits    []string `json:"pattern_hits,omitempty"`
}

// EngagementStage is the agent's behavioral phase, recomputed each turn
// from message count and extracted intelligence.
type EngagementStage string

const (
	StageOpening             EngagementStage = "opening"
	StageProbing             EngagementStage = "probing"
	StageCompliantButSlow    EngagementStage = "compliant_but_slow"
	StageDeceptiveCompliance EngagementStage = "deceptive_compliance"
)

package models

// Persona is the synthetic victim identity the agent maintains for the
// life of a session. Generated once at session creation and never changed.
type Persona struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Occupation     string `json:"occupation"`
	Location       string `json:"location"`
	Bank           string `json:"bank"`
	TechSavvy      string `json:"tech_savvy"`      // low or medium
	EmotionalState string `json:"emotional_state"` // worried, confused, trusting
	TypingStyle    string `json:"typing_style"`    // slow, makes_typos, formal
}

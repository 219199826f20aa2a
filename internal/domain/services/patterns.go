package services

import (
	"regexp"
	"strings"
	"sync"
)

// WeightedKeyword is one lexical scam signal with its scoring weight
type WeightedKeyword struct {
	Phrase string
	Weight float64
}

// ScamPattern is one structural scam signal matched by regex
type ScamPattern struct {
	Name string
	Expr string
}

// PatternLibrary is the immutable rule table shared by the detector and
// the extractor. Loaded once at process start; safe for concurrent reads.
// Keywords and patterns keep declaration order so matched signal lists
// are reproducible across identical input.
type PatternLibrary struct {
	Keywords []WeightedKeyword
	Patterns []ScamPattern

	patternRes []*regexp.Regexp
	askingRes  []*regexp.Regexp
	safetyRes  []*regexp.Regexp
}

var (
	libraryOnce sync.Once
	library     *PatternLibrary
)

// Library returns the shared pattern library, compiling it on first use
func Library() *PatternLibrary {
	libraryOnce.Do(func() {
		library = newPatternLibrary()
	})
	return library
}

func newPatternLibrary() *PatternLibrary {
	lib := &PatternLibrary{
		Keywords: []WeightedKeyword{
			// Urgency
			{"urgent", 2.0},
			{"immediately", 2.0},
			{"today", 1.5},
			{"now", 1.5},
			{"asap", 1.8},
			{"hurry", 1.5},
			{"deadline", 1.5},
			{"expire", 1.8},
			{"last chance", 2.0},

			// Threats
			{"blocked", 2.5},
			{"suspended", 2.5},
			{"deactivated", 2.0},
			{"freeze", 2.0},
			{"frozen", 2.0},
			{"terminated", 2.0},
			{"closed", 1.5},
			{"legal action", 2.5},
			{"police", 2.0},
			{"arrest", 2.5},
			{"court", 2.0},
			{"lawsuit", 2.0},

			// Financial
			{"bank account", 2.0},
			{"upi", 2.5},
			{"otp", 3.0},
			{"pin", 2.5},
			{"cvv", 3.0},
			{"credit card", 2.0},
			{"debit card", 2.0},
			{"transfer", 1.5},
			{"payment", 1.5},
			{"refund", 2.0},
			{"cashback", 1.8},

			// Verification requests
			{"verify", 2.0},
			{"confirm", 1.5},
			{"authenticate", 1.8},
			{"validate", 1.5},
			{"update details", 2.0},
			{"kyc", 2.5},

			// Prize/lottery
			{"won", 2.5},
			{"winner", 2.5},
			{"lottery", 3.0},
			{"prize", 2.5},
			{"reward", 2.0},
			{"congratulations", 2.0},
			{"congratulation", 2.0},
			{"selected", 1.8},
			{"lucky", 2.0},
			{"bike", 2.0},
			{"car", 2.0},
			{"gift", 1.8},
			{"claim", 2.0},
			{"free", 1.5},
			{"lakh", 2.0},
			{"crore", 2.0},
			{"jackpot", 3.0},

			// Impersonation
			{"rbi", 2.0},
			{"income tax", 2.0},
			{"government", 1.8},
			{"bank manager", 2.5},
			{"customer care", 2.0},
			{"support team", 1.5},

			// Action requests
			{"click here", 2.0},
			{"click link", 2.5},
			{"download", 1.5},
			{"install", 1.5},
			{"share", 1.5},
			{"send", 1.0},
		},
		Patterns: []ScamPattern{
			// Bank/UPI
			{"account-threat", `(your|ur)\s*(bank\s*)?(account|a/c)\s*(will\s*be|is)\s*(blocked|suspended|frozen)`},
			{"verify-request", `(verify|update|confirm)\s*(your|ur)?\s*(bank|upi|account|kyc)`},
			{"credential-request", `share\s*(your|ur)?\s*(otp|pin|cvv|password)`},
			{"upi-request", `(upi|bank)\s*id\s*(required|needed|share)`},

			// Prize/lottery
			{"prize-claim", `(you|u)\s*(have\s*)?(won|selected|chosen)\s*(a|the)?\s*(prize|lottery|reward)`},
			{"claim-request", `(claim|collect)\s*(your|ur)?\s*(prize|reward|money|cashback)`},

			// Threats
			{"legal-threat", `(legal|police)\s*action\s*(will\s*be)?\s*taken`},
			{"arrest-threat", `(arrest|jail)\s*(warrant|order)`},
			{"tax-threat", `(income\s*tax|it)\s*(notice|raid|investigation)`},

			// Urgency
			{"time-pressure", `(within|in)\s*\d+\s*(hours?|minutes?|mins?)`},
			{"final-warning", `(last|final)\s*(warning|notice|chance)`},

			// Links
			{"suspicious-tld-link", `https?://[^\s]+\.(xyz|tk|ml|ga|cf|top|click|link)`},
			{"shortened-link", `bit\.ly|tinyurl|short\.io`},

			// Contact requests
			{"callback-number", `(call|contact|whatsapp)\s*(this|at)?\s*\+?\d{10,}`},
		},
	}

	for _, p := range lib.Patterns {
		lib.patternRes = append(lib.patternRes, regexp.MustCompile("(?i)"+p.Expr))
	}
	for _, expr := range askingExprs {
		lib.askingRes = append(lib.askingRes, regexp.MustCompile("(?i)"+expr))
	}
	for _, expr := range safetyExprs {
		lib.safetyRes = append(lib.safetyRes, regexp.MustCompile("(?i)"+expr))
	}
	return lib
}

// askingExprs match requests for sensitive information or actions
var askingExprs = []string{
	`share.*otp`,
	`give.*otp`,
	`send.*otp`,
	`tell.*otp`,
	`provide.*otp`,
	`verify.*account`,
	`update.*kyc`,
	`click.*link`,
	`fill.*form`,
}

// safetyExprs match genuine safety advice, which triggers the same lexical
// signals as a scam ("never share your OTP") and must overrule them
var safetyExprs = []string{
	`never share.*otp`,
	`do not share.*otp`,
	`don'?t share.*otp`,
	`never give.*otp`,
	`never tell.*otp`,
	`be careful.*fraud`,
	`beware of.*scam`,
	`stay safe`,
	`do not click.*unknown`,
	`never click.*link`,
	`don'?t click.*link`,
	`bank.*never asks`,
	`officials.*never ask`,
	`for security reasons`,
	`keep your.*safe`,
	`avoid.*scam`,
	`do not entertain`,
	`don'?t entertain`,
	`do not accept`,
	`don'?t accept`,
	`ignore.*ask`,
	`avoid.*share`,
	`refuse.*share`,
}

// MatchKeywords returns the total keyword weight and the matched phrases
// in declaration order
func (l *PatternLibrary) MatchKeywords(text string) (float64, []string) {
	lower := strings.ToLower(text)
	var total float64
	var matched []string
	for _, kw := range l.Keywords {
		if strings.Contains(lower, kw.Phrase) {
			total += kw.Weight
			matched = append(matched, kw.Phrase)
		}
	}
	return total, matched
}

// MatchPatterns returns the names of structural patterns found in text,
// in declaration order
func (l *PatternLibrary) MatchPatterns(text string) []string {
	var matched []string
	for i, re := range l.patternRes {
		if re.MatchString(text) {
			matched = append(matched, l.Patterns[i].Name)
		}
	}
	return matched
}

// IsAsking reports whether the text requests sensitive info or actions
func (l *PatternLibrary) IsAsking(text string) bool {
	for _, re := range l.askingRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsSafetyAdvice reports whether the text is a safety warning rather than
// a scam attempt
func (l *PatternLibrary) IsSafetyAdvice(text string) bool {
	for _, re := range l.safetyRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ClassifyScamType maps message content to a coarse scam category.
// First matching category wins.
func (l *PatternLibrary) ClassifyScamType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "bank", "account", "upi", "otp", "kyc"):
		return "Banking/UPI Fraud"
	case containsAny(lower, "won", "prize", "lottery", "reward", "cashback"):
		return "Prize/Lottery Scam"
	case containsAny(lower, "police", "legal", "arrest", "court", "income tax"):
		return "Threat/Impersonation Scam"
	case containsAny(lower, "job", "work from home", "earning", "investment"):
		return "Job/Investment Scam"
	case containsAny(lower, "click", "link", "download"):
		return "Phishing Scam"
	default:
		return "Generic Scam"
	}
}

func containsAny(lower string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

package ai

import (
	"strings"
	"testing"

	"honeytrap-lab/internal/domain/models"
)

var templateTestPersona = models.Persona{
	Name:       "Meera Iyer",
	Age:        58,
	Occupation: "retired teacher",
	Location:   "Chennai",
	Bank:       "Canara Bank",
}

func TestPickDeterministic(t *testing.T) {
	options := []string{"a", "b", "c"}
	tests := []struct {
		count int
		want  string
	}{
		{0, "a"},
		{1, "b"},
		{2, "c"},
		{3, "a"},
		{7, "b"},
	}
	for _, tt := range tests {
		if got := pick(options, tt.count); got != tt.want {
			t.Errorf("pick(options, %d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestTemplateReplyContextualOTP(t *testing.T) {
	reply := TemplateReply("Share your OTP with me", 0, models.StageOpening, "Banking/UPI Fraud", "english", templateTestPersona)
	want := contextualResponses[0].replies[0]
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestTemplateReplyContextualPrize(t *testing.T) {
	reply := TemplateReply("Congratulations! You have won a lottery", 1, models.StageOpening, "Prize/Lottery Scam", "english", templateTestPersona)
	if !strings.Contains(strings.ToLower(reply), "won") && !strings.Contains(reply, "dream") && !strings.Contains(reply, "bike") && !strings.Contains(reply, "lucky") && !strings.Contains(reply, "lottery") && !strings.Contains(reply, "taxes") {
		t.Errorf("reply does not sound like a prize reaction: %q", reply)
	}
}

func TestTemplateReplyScamSpecific(t *testing.T) {
	// Second turn, no contextual keyword in the message, so the reply
	// comes from the scam-type pool.
	reply := TemplateReply("Please respond to claim.", 1, models.StageOpening, "Prize/Lottery Scam", "english", templateTestPersona)
	want := scamSpecificResponses["Prize/Lottery Scam"][1]
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestTemplateReplyFakeUPISubstitution(t *testing.T) {
	// Turn 10 lands in the fake-info phase on the template whose body
	// carries the UPI placeholder.
	reply := TemplateReply("Tell me your details.", 10, models.StageDeceptiveCompliance, "", "english", templateTestPersona)
	if strings.Contains(reply, "{fake_upi}") {
		t.Errorf("placeholder not substituted: %q", reply)
	}
	if !strings.Contains(reply, "@") {
		t.Errorf("reply = %q, want a decoy UPI handle in it", reply)
	}
}

func TestTemplateReplyHindi(t *testing.T) {
	reply := TemplateReply("Share your OTP with me", 1, models.StageOpening, "Banking/UPI Fraud", "hindi", templateTestPersona)
	want := hindiTemplates[phaseInitialConfusion][1]
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestTemplateReplyTamilPhaseFallback(t *testing.T) {
	// Tamil has no scripted asking-for-details phase; the concern phase
	// stands in for it.
	reply := TemplateReply("Send your documents.", 2, models.StageOpening, "", "tamil", templateTestPersona)
	want := tamilTemplates[phaseShowingConcern][2%len(tamilTemplates[phaseShowingConcern])]
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestTemplateReplyNeverEmpty(t *testing.T) {
	languages := []string{"english", "hindi", "tamil", ""}
	for _, lang := range languages {
		for count := 0; count <= 15; count++ {
			stage := Stage(count, models.IntelligenceReport{})
			reply := TemplateReply("Verify your account now", count, stage, "Banking/UPI Fraud", lang, templateTestPersona)
			if strings.TrimSpace(reply) == "" {
				t.Errorf("empty reply for lang=%q count=%d", lang, count)
			}
		}
	}
}

func TestSafeReply(t *testing.T) {
	if got := SafeReply(0); got != safeFallbacks[0] {
		t.Errorf("SafeReply(0) = %q, want %q", got, safeFallbacks[0])
	}
	if got := SafeReply(6); got != safeFallbacks[6%len(safeFallbacks)] {
		t.Errorf("SafeReply(6) = %q, want %q", got, safeFallbacks[6%len(safeFallbacks)])
	}
}

func TestApplyPersona(t *testing.T) {
	got := applyPersona("I am with {bank} and my UPI is {fake_upi}", templateTestPersona, 0)
	if !strings.Contains(got, "Canara Bank") {
		t.Errorf("bank not substituted: %q", got)
	}
	if strings.Contains(got, "{fake_upi}") {
		t.Errorf("UPI placeholder not substituted: %q", got)
	}
}

func TestAnalyzeScammerMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(contextFlags) bool
	}{
		{"otp request", "please share the OTP", func(f contextFlags) bool { return f.asksForOTP }},
		{"money request", "transfer Rs 5000", func(f contextFlags) bool { return f.asksForMoney }},
		{"prize bait", "you won a reward", func(f contextFlags) bool { return f.prizeLottery }},
		{"kyc bait", "your KYC will expire", func(f contextFlags) bool { return f.kycVerify }},
		{"link push", "click the link below", func(f contextFlags) bool { return f.mentionsLink }},
		{"pressure", "act fast or police will come", func(f contextFlags) bool { return f.pressures }},
		{"greeting", "hello sir good morning", func(f contextFlags) bool { return f.isGreeting }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if flags := analyzeScammerMessage(tt.text); !tt.check(flags) {
				t.Errorf("flag not set for %q", tt.text)
			}
		})
	}
}

func TestFallbackPhaseProgression(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, phaseInitialConfusion},
		{1, phaseInitialConfusion},
		{2, phaseAskingForDetails},
		{3, phaseShowingConcern},
		{4, phaseProbingForInfo},
		{5, phaseBuildingTrust},
		{6, phaseStalling},
		{7, phaseProbingForInfo},
		{8, phaseStalling},
		{9, phaseStalling},
		{10, phaseProvidingFakeInfo},
	}
	for _, tt := range tests {
		if got := fallbackPhase(tt.count, Stage(tt.count, models.IntelligenceReport{})); got != tt.want {
			t.Errorf("fallbackPhase(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestFallbackPhaseDeceptiveComplianceEarly(t *testing.T) {
	// Captured payment identifiers advance the phase regardless of how
	// few messages have been exchanged.
	if got := fallbackPhase(3, models.StageDeceptiveCompliance); got != phaseStalling {
		t.Errorf("fallbackPhase(3, deceptive) = %q, want %q", got, phaseStalling)
	}
	if got := fallbackPhase(4, models.StageDeceptiveCompliance); got != phaseProvidingFakeInfo {
		t.Errorf("fallbackPhase(4, deceptive) = %q, want %q", got, phaseProvidingFakeInfo)
	}
	if got := fallbackPhase(4, models.StageProbing); got == phaseProvidingFakeInfo {
		t.Errorf("fallbackPhase(4, probing) = %q, want an earlier phase", got)
	}
}

func TestTemplateReplyAdvancesWithStage(t *testing.T) {
	// Same turn, same count: the deceptive-compliance stage must swap
	// the probing template for a fake-info one.
	text := "Tell me your details."
	probing := TemplateReply(text, 4, models.StageProbing, "", "english", templateTestPersona)
	deceptive := TemplateReply(text, 4, models.StageDeceptiveCompliance, "", "english", templateTestPersona)

	if probing == deceptive {
		t.Fatalf("stage had no effect on reply: %q", probing)
	}
	want := responseTemplates[phaseProvidingFakeInfo][4%len(responseTemplates[phaseProvidingFakeInfo])]
	if deceptive != applyPersona(want, templateTestPersona, 4) {
		t.Errorf("deceptive reply = %q, want %q", deceptive, want)
	}
}

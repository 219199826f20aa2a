package services

import (
	"testing"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestDetector() *Detector {
	return NewDetector(logger.NewDefault(), 0.4)
}

func TestDetectScamMessages(t *testing.T) {
	d := newTestDetector()

	testCases := []struct {
		name     string
		text     string
		wantScam bool
	}{
		{
			name:     "account block threat",
			text:     "Your bank account will be blocked today. Verify immediately.",
			wantScam: true,
		},
		{
			name:     "OTP request",
			text:     "Share your OTP to verify your account immediately or it will be suspended",
			wantScam: true,
		},
		{
			name:     "lottery prize",
			text:     "Congratulations! You won the lottery jackpot of 25 lakh. Send processing fee to claim your prize",
			wantScam: true,
		},
		{
			name:     "plain greeting",
			text:     "Hello, how are you doing today?",
			wantScam: false,
		},
		{
			name:     "benign appointment",
			text:     "Your dentist appointment is confirmed for Tuesday at 3pm",
			wantScam: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := d.Detect(tc.text, nil)
			if verdict.IsScam != tc.wantScam {
				t.Errorf("Detect(%q).IsScam = %v, want %v (confidence %.2f)",
					tc.text, verdict.IsScam, tc.wantScam, verdict.Confidence)
			}
		})
	}
}

func TestDetectMatchedSignals(t *testing.T) {
	d := newTestDetector()

	verdict := d.Detect("Your bank account will be blocked today. Verify immediately.", nil)
	if !verdict.IsScam {
		t.Fatalf("expected scam verdict, got confidence %.2f", verdict.Confidence)
	}

	for _, want := range []string{"blocked", "verify", "immediately"} {
		if !containsSignal(verdict.MatchedSignals, want) {
			t.Errorf("MatchedSignals missing %q: %v", want, verdict.MatchedSignals)
		}
	}
}

func TestDetectSafetyAdviceOverrule(t *testing.T) {
	d := newTestDetector()

	testCases := []string{
		"Never share your OTP with anyone, not even bank staff.",
		"Beware of scams: do not click unknown links asking for your PIN.",
		"Banks never ask for your CVV or password. Stay safe.",
	}

	for _, text := range testCases {
		verdict := d.Detect(text, nil)
		if verdict.IsScam {
			t.Errorf("safety advice classified as scam: %q", text)
		}
		if verdict.Confidence > 0.1 {
			t.Errorf("safety advice confidence = %.2f, want low: %q", verdict.Confidence, text)
		}
	}
}

func TestDetectEmptyText(t *testing.T) {
	d := newTestDetector()

	for _, text := range []string{"", "   ", "\n\t"} {
		verdict := d.Detect(text, nil)
		if verdict.IsScam || verdict.Confidence != 0 {
			t.Errorf("Detect(%q) = %+v, want zero verdict", text, verdict)
		}
		if verdict.MatchedSignals == nil {
			t.Errorf("Detect(%q).MatchedSignals is nil, want empty slice", text)
		}
	}
}

func TestDetectContextEscalation(t *testing.T) {
	d := newTestDetector()

	history := []models.MessageTurn{
		{Sender: models.SenderScammer, Text: "Your account is blocked due to suspicious activity"},
		{Sender: models.SenderScammer, Text: "This is your last warning, account suspended with legal action"},
		{Sender: models.SenderScammer, Text: "Share your details now"},
		{Sender: models.SenderScammer, Text: "Send your account number to resolve"},
	}

	text := "Provide your details now to avoid penalty"
	bare := d.Detect(text, nil)
	escalated := d.Detect(text, history)

	if escalated.Confidence <= bare.Confidence {
		t.Errorf("history should raise confidence: bare %.2f, escalated %.2f",
			bare.Confidence, escalated.Confidence)
	}
}

func TestDetectScamTypeClassification(t *testing.T) {
	d := newTestDetector()

	testCases := []struct {
		name     string
		text     string
		wantType string
	}{
		{
			name:     "banking fraud",
			text:     "Your KYC is pending, share your UPI PIN immediately or account will be blocked",
			wantType: "Banking/UPI Fraud",
		},
		{
			name:     "lottery scam",
			text:     "Congratulations you won the lottery! Pay the processing fee immediately to claim your prize money now",
			wantType: "Prize/Lottery Scam",
		},
		{
			name:     "threat scam",
			text:     "This is the police. Pay the fine immediately and send payment now or you will be arrested for legal violation",
			wantType: "Threat/Impersonation Scam",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := d.Detect(tc.text, nil)
			if !verdict.IsScam {
				t.Fatalf("expected scam, got confidence %.2f", verdict.Confidence)
			}
			if verdict.ScamType != tc.wantType {
				t.Errorf("ScamType = %q, want %q", verdict.ScamType, tc.wantType)
			}
		})
	}
}

func TestDetectConfidenceBounds(t *testing.T) {
	d := newTestDetector()

	texts := []string{
		"urgent verify blocked suspended otp pin cvv password lottery prize winner claim send immediately",
		"hello",
		"Your account will be blocked. Share OTP now.",
	}
	for _, text := range texts {
		verdict := d.Detect(text, nil)
		if verdict.Confidence < 0 || verdict.Confidence > 1 {
			t.Errorf("confidence out of bounds for %q: %.2f", text, verdict.Confidence)
		}
	}
}

func containsSignal(signals []string, want string) bool {
	for _, s := range signals {
		if s == want {
			return true
		}
	}
	return false
}

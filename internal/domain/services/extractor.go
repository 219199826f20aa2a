package services

import (
	"net"
	"regexp"
	"strings"
	"unicode"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// Extractor pulls scam-actor identifiers out of conversation text and
// merges them into a session's accumulated report. Extraction is
// idempotent and the report only ever grows.
type Extractor struct {
	logger *logger.Logger

	upiRe     *regexp.Regexp
	emailRe   *regexp.Regexp
	digitRe   *regexp.Regexp
	phoneRes  []*regexp.Regexp
	urlRes    []*regexp.Regexp
	whitelist []string
}

// upiHandles are the known Indian VPA provider suffixes
var upiHandles = map[string]bool{
	"ybl":        true, // PhonePe
	"paytm":      true,
	"okicici":    true, // Google Pay ICICI
	"oksbi":      true, // Google Pay SBI
	"okaxis":     true, // Google Pay Axis
	"okhdfcbank": true, // Google Pay HDFC
	"upi":        true,
	"apl":        true, // Amazon Pay
	"ibl":        true,
	"sbi":        true,
	"axl":        true,
	"fbl":        true,
}

var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd",
	"cutt.ly", "rb.gy", "tiny.cc", "short.io",
}

var suspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".buzz", ".click", ".link",
}

// NewExtractor creates an intelligence extractor
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{
		logger:  log.WithComponent("intel-extractor"),
		upiRe:   regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9]+`),
		emailRe: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		digitRe: regexp.MustCompile(`\b\d[\d\s-]{7,21}\d\b`),
		phoneRes: []*regexp.Regexp{
			regexp.MustCompile(`\+91[\s-]?\d{10}`),
			regexp.MustCompile(`\b91\d{10}\b`),
			regexp.MustCompile(`\b[6-9]\d{9}\b`),
			regexp.MustCompile(`\+\d{1,3}[\s-]?\d{10,12}`),
		},
		urlRes: []*regexp.Regexp{
			regexp.MustCompile(`https?://[^\s<>"']+`),
			regexp.MustCompile(`www\.[^\s<>"']+`),
			regexp.MustCompile(`(?i)\b[a-zA-Z0-9-]+\.(xyz|tk|ml|ga|cf|gq|top|buzz|click|link|online|site)[^\s<>"']*`),
		},
		whitelist: []string{
			"google.com", "microsoft.com", "apple.com",
			"facebook.com", "twitter.com", "linkedin.com",
			"amazon.in", "flipkart.com", "paytm.com",
			"sbi.co.in", "hdfcbank.com", "icicibank.com",
			"rbi.org.in", "incometax.gov.in",
		},
	}
}

// Extract merges everything found in text into report and returns the
// updated report. Previously found entities are never removed.
func (e *Extractor) Extract(report models.IntelligenceReport, text string) models.IntelligenceReport {
	if strings.TrimSpace(text) == "" {
		return report
	}

	upis := e.extractUPIIDs(text)
	report.UPIIDs = appendUnique(report.UPIIDs, upis...)
	report.Emails = appendUnique(report.Emails, e.extractEmails(text, upis)...)

	phones := e.extractPhones(text)
	report.PhoneNumbers = appendUnique(report.PhoneNumbers, phones...)
	report.BankAccounts = appendUnique(report.BankAccounts, e.extractBankAccounts(text)...)
	report.PhishingLinks = appendUnique(report.PhishingLinks, e.extractPhishingLinks(text)...)

	_, keywords := Library().MatchKeywords(text)
	report.SuspiciousKeywords = appendUnique(report.SuspiciousKeywords, keywords...)

	return report
}

// ExtractConversation folds every turn of a conversation into the report
func (e *Extractor) ExtractConversation(report models.IntelligenceReport, turns []models.MessageTurn) models.IntelligenceReport {
	for _, turn := range turns {
		if turn.Sender == models.SenderScammer {
			report = e.Extract(report, turn.Text)
		}
	}
	return report
}

func (e *Extractor) extractUPIIDs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, match := range e.upiRe.FindAllString(text, -1) {
		at := strings.LastIndex(match, "@")
		if at <= 0 {
			continue
		}
		handle := strings.ToLower(match[at+1:])
		if !upiHandles[handle] {
			continue
		}
		id := strings.ToLower(match[:at]) + "@" + handle
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// extractEmails skips addresses already classified as UPI IDs so a value
// is never reported under both classes
func (e *Extractor) extractEmails(text string, upiIDs []string) []string {
	upiSeen := make(map[string]bool, len(upiIDs))
	for _, id := range upiIDs {
		upiSeen[id] = true
	}

	var emails []string
	seen := make(map[string]bool)
	for _, match := range e.emailRe.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimRight(match, "."))
		if seen[email] || upiSeen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}

func (e *Extractor) extractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)
	for _, re := range e.phoneRes {
		for _, match := range re.FindAllString(text, -1) {
			normalized := normalizePhone(match)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			phones = append(phones, normalized)
		}
	}
	return phones
}

func (e *Extractor) extractBankAccounts(text string) []string {
	var accounts []string
	seen := make(map[string]bool)
	for _, match := range e.digitRe.FindAllString(text, -1) {
		digits := stripSeparators(match)
		if len(digits) < 9 || len(digits) > 18 {
			continue
		}
		// A bare 10-digit run starting 6-9 is a mobile number, and a
		// 12-digit run with the country prefix is the same number again.
		if len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9' {
			continue
		}
		if len(digits) == 12 && strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9' {
			continue
		}
		if !seen[digits] {
			seen[digits] = true
			accounts = append(accounts, digits)
		}
	}
	return accounts
}

func (e *Extractor) extractPhishingLinks(text string) []string {
	urgent := Library().IsAsking(text) || containsAny(strings.ToLower(text),
		"urgent", "immediately", "expire", "blocked", "verify", "claim")

	var links []string
	seen := make(map[string]bool)
	for _, re := range e.urlRes {
		for _, match := range re.FindAllString(text, -1) {
			link := strings.TrimRight(match, ".,;:!?)")
			if seen[link] {
				continue
			}
			seen[link] = true
			if e.isPhishing(link, urgent) {
				links = append(links, link)
			}
		}
	}
	return links
}

// isPhishing flags shortener domains, throwaway TLDs, bare IP hosts, and
// any non-whitelisted link that rides alongside urgency vocabulary
func (e *Extractor) isPhishing(link string, urgentContext bool) bool {
	lower := strings.ToLower(link)
	host := linkHost(lower)

	for _, domain := range e.whitelist {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return false
		}
	}

	for _, shortener := range shortenerDomains {
		if host == shortener || strings.HasSuffix(host, "."+shortener) {
			return true
		}
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return urgentContext
}

func linkHost(link string) string {
	link = strings.TrimPrefix(link, "http://")
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "www.")
	if i := strings.IndexAny(link, "/?#"); i >= 0 {
		link = link[:i]
	}
	if i := strings.Index(link, ":"); i >= 0 {
		link = link[:i]
	}
	return link
}

// normalizePhone strips separators and canonicalizes Indian mobiles to
// the +91 form
func normalizePhone(phone string) string {
	var b strings.Builder
	for i, c := range phone {
		if c == '+' && i == 0 {
			b.WriteRune(c)
		} else if unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	cleaned := b.String()

	if len(cleaned) == 10 && cleaned[0] >= '6' && cleaned[0] <= '9' {
		return "+91" + cleaned
	}
	if len(cleaned) == 12 && strings.HasPrefix(cleaned, "91") {
		return "+" + cleaned
	}
	return cleaned
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, c := range s {
		if unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// appendUnique appends values not already present, preserving first-seen
// order. Empty strings are never added.
func appendUnique(existing []string, values ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		existing = append(existing, v)
	}
	return existing
}

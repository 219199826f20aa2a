package models

// IntelligenceReport is the accumulated set of scam-actor identifiers
// extracted from a session's conversation. Slices keep first-seen order;
// values are normalized and deduplicated before insertion, and the report
// only ever grows across turns.
type IntelligenceReport struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	Emails             []string `json:"emails"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// NewIntelligenceReport returns a report with non-nil slices so JSON
// encodes empty arrays rather than nulls.
func NewIntelligenceReport() IntelligenceReport {
	return IntelligenceReport{
		BankAccounts:       []string{},
		UPIIDs:             []string{},
		PhoneNumbers:       []string{},
		Emails:             []string{},
		PhishingLinks:      []string{},
		SuspiciousKeywords: []string{},
	}
}

// IsEmpty reports whether nothing has been extracted yet
func (r IntelligenceReport) IsEmpty() bool {
	return len(r.BankAccounts) == 0 &&
		len(r.UPIIDs) == 0 &&
		len(r.PhoneNumbers) == 0 &&
		len(r.Emails) == 0 &&
		len(r.PhishingLinks) == 0 &&
		len(r.SuspiciousKeywords) == 0
}

// HasPaymentIdentifiers reports whether any financial identifier has been
// extracted. The agent switches to its late engagement stage once the
// scammer has disclosed one.
func (r IntelligenceReport) HasPaymentIdentifiers() bool {
	return len(r.BankAccounts) > 0 || len(r.UPIIDs) > 0
}

// TotalEntities counts all extracted values across every class
func (r IntelligenceReport) TotalEntities() int {
	return len(r.BankAccounts) + len(r.UPIIDs) + len(r.PhoneNumbers) +
		len(r.Emails) + len(r.PhishingLinks) + len(r.SuspiciousKeywords)
}

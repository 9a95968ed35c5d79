// Package report defines the four analytical sections shared by both
// generation pipelines and the orchestration layer.
package report

// Section keys, in presentation order.
const (
	SectionOverview             = "overview"
	SectionFinancialHighlights  = "financialHighlights"
	SectionKeyRisks             = "keyRisks"
	SectionManagementCommentary = "managementCommentary"
)

// SectionOrder lists all section keys in presentation order.
var SectionOrder = []string{
	SectionOverview,
	SectionFinancialHighlights,
	SectionKeyRisks,
	SectionManagementCommentary,
}

// Titles maps section keys to display titles.
var Titles = map[string]string{
	SectionOverview:             "Company Overview",
	SectionFinancialHighlights:  "Financial Highlights",
	SectionKeyRisks:             "Key Risks",
	SectionManagementCommentary: "Management Commentary",
}

// Sections holds the generated text for all four report sections.
type Sections struct {
	Overview             string `json:"overview"`
	FinancialHighlights  string `json:"financialHighlights"`
	KeyRisks             string `json:"keyRisks"`
	ManagementCommentary string `json:"managementCommentary"`
}

// Set assigns text to the section identified by key. Unknown keys are
// ignored.
func (s *Sections) Set(key, text string) {
	switch key {
	case SectionOverview:
		s.Overview = text
	case SectionFinancialHighlights:
		s.FinancialHighlights = text
	case SectionKeyRisks:
		s.KeyRisks = text
	case SectionManagementCommentary:
		s.ManagementCommentary = text
	}
}

// Get returns the text of the section identified by key, or "" for
// unknown keys.
func (s *Sections) Get(key string) string {
	switch key {
	case SectionOverview:
		return s.Overview
	case SectionFinancialHighlights:
		return s.FinancialHighlights
	case SectionKeyRisks:
		return s.KeyRisks
	case SectionManagementCommentary:
		return s.ManagementCommentary
	}
	return ""
}

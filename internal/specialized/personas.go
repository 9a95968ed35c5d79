package specialized

import "github.com/mkovalev/finsight/internal/report"

// Persona is a fixed role assigned to one report section. Temperatures
// stay low (0.1-0.2) because each persona writes directly to the final
// report with no validation stage behind it.
type Persona struct {
	Name        string
	Role        string
	Temperature float64
}

// personas maps each report section to its owning persona.
var personas = map[string]Persona{
	report.SectionOverview: {
		Name:        "researcher",
		Role:        "You are a company researcher. You describe what a company does, its markets, segments, and strategy, strictly from the provided excerpts.",
		Temperature: 0.2,
	},
	report.SectionFinancialHighlights: {
		Name:        "analyst",
		Role:        "You are a financial analyst. You report concrete figures: revenue, profit, margins, cash flow, and growth rates, strictly from the provided excerpts. You never invent numbers.",
		Temperature: 0.1,
	},
	report.SectionKeyRisks: {
		Name:        "riskAssessor",
		Role:        "You are a risk assessor. You identify material business, market, regulatory, and financial risks, strictly from the provided excerpts.",
		Temperature: 0.15,
	},
	report.SectionManagementCommentary: {
		Name:        "strategist",
		Role:        "You are a corporate strategist. You summarize management's outlook, guidance, and priorities, strictly from the provided excerpts.",
		Temperature: 0.2,
	},
}

// sectionQueries holds the fixed, hand-written retrieval query per
// section. There is no planning step and no escalation in this pipeline.
var sectionQueries = map[string]string{
	report.SectionOverview:             "company business description products markets segments strategy",
	report.SectionFinancialHighlights:  "revenue net income profit margin earnings cash flow growth",
	report.SectionKeyRisks:             "risk factors uncertainty competition regulation litigation debt",
	report.SectionManagementCommentary: "management outlook guidance expects priorities plans",
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
)

// maxEvidenceChars bounds the evidence injected into the drafting prompt.
const maxEvidenceChars = 6000

// sectionInstructions holds the drafting guidance per report section.
// Each block names the required content and forbids markdown; the
// Validator catches deviations afterwards.
var sectionInstructions = map[string]string{
	report.SectionOverview: `Write the Company Overview section. Cover what the company does, its main markets and segments, and any strategic developments mentioned in the evidence. Output plain text bullet lines, each starting with "• ". Do not use markdown symbols (*, #, _, backticks). 4 to 7 bullets.`,
	report.SectionFinancialHighlights: `Write the Financial Highlights section. Report concrete figures from the evidence: revenue, profit, margins, cash flow, growth rates, with periods when stated. Output plain text bullet lines, each starting with "• ". Do not use markdown symbols (*, #, _, backticks). 4 to 7 bullets. Never invent numbers that are not in the evidence.`,
	report.SectionKeyRisks: `Write the Key Risks section. List the material risks to the business found in the evidence: market, operational, regulatory, financial. One risk per bullet with a short explanation. Output plain text bullet lines, each starting with "• ". Do not use markdown symbols (*, #, _, backticks). 3 to 6 bullets.`,
	report.SectionManagementCommentary: `Write the Management Commentary section. Summarize management's stated outlook, guidance, priorities, and tone from the evidence. Output plain text bullet lines, each starting with "• ". Do not use markdown symbols (*, #, _, backticks). 3 to 6 bullets.`,
}

const questionInstruction = `Answer the user's question about the company using only the provided evidence. Respond in 2-3 plain sentences. If the evidence does not contain the answer, say so. No markdown, no bullet points.`

// Analyst produces the first-draft content for a unit of work.
type Analyst struct {
	completer Completer
}

// NewAnalyst creates an Analyst using the given completion capability.
func NewAnalyst(completer Completer) *Analyst {
	return &Analyst{completer: completer}
}

// Draft generates the raw first-draft text. No parsing happens here; the
// Validator is responsible for catching formatting deviations.
func (a *Analyst) Draft(ctx context.Context, unit Unit, plan Plan, tools []ToolOutput, evidence Evidence, ledgerContext string) (string, error) {
	system := questionInstruction
	maxTokens := 300
	if !unit.IsQuestion() {
		system = sectionInstructions[unit.Section]
		maxTokens = 700
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", unit.Company)
	if unit.IsQuestion() {
		fmt.Fprintf(&sb, "Question: %s\n", unit.Question)
	}
	fmt.Fprintf(&sb, "Objective: %s\n", plan.Objective)
	if len(plan.SubQuestions) > 0 {
		fmt.Fprintf(&sb, "Sub-questions: %s\n", strings.Join(plan.SubQuestions, "; "))
	}
	if len(plan.AnalysisFocus) > 0 {
		fmt.Fprintf(&sb, "Analysis focus: %s\n", strings.Join(plan.AnalysisFocus, "; "))
	}

	for _, t := range tools {
		fmt.Fprintf(&sb, "\n[Tool %s]\n%s\n", t.Name, t.Output)
	}

	text := evidence.AggregatedText
	if len(text) > maxEvidenceChars {
		text = text[:maxEvidenceChars]
	}
	fmt.Fprintf(&sb, "\n[Evidence]\n%s\n", text)

	if ledgerContext != "" {
		fmt.Fprintf(&sb, "\n[Analysis history]\n%s\n", ledgerContext)
	}

	return a.completer.Complete(ctx, []provider.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: sb.String()},
	}, maxTokens, 0.3)
}

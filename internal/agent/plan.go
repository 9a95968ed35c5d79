package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
)

// Plan is the structured retrieval/analysis intent produced before
// retrieval. It is created once per unit of work and never mutated; all
// array fields are guaranteed non-nil.
type Plan struct {
	Objective        string   `json:"objective"`
	RetrievalQueries []string `json:"retrievalQueries"`
	FallbackQueries  []string `json:"fallbackQueries"`
	AnalysisFocus    []string `json:"analysisFocus"`
	SubQuestions     []string `json:"subQuestions"`
	ToolSuggestions  []string `json:"toolSuggestions"`
}

const plannerSystemPrompt = `You are a retrieval planner for financial document analysis. Respond with ONLY a single valid JSON object with these keys:
- "objective": one sentence describing the goal
- "retrievalQueries": 2-4 search queries for finding relevant passages
- "fallbackQueries": 2 broader queries to use if the first set finds nothing
- "analysisFocus": 1-3 topics the analysis should concentrate on
- "subQuestions": 1-3 questions the analysis should answer
- "toolSuggestions": subset of ["numeric_summary", "keyword_coverage"]
No prose, no markdown, no code fences.`

// Planner translates a work unit plus recent ledger context into a Plan
// via a single structured completion call.
type Planner struct {
	completer Completer
}

// NewPlanner creates a Planner using the given completion capability.
func NewPlanner(completer Completer) *Planner {
	return &Planner{completer: completer}
}

// Plan produces the Plan for a unit of work along with the raw completion
// text. It never fails: on any completion or parse error a deterministic
// default plan built from the unit fields is substituted.
func (p *Planner) Plan(ctx context.Context, unit Unit, ledgerContext string) (Plan, string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", unit.Company)
	if unit.IsQuestion() {
		fmt.Fprintf(&sb, "Task: answer the question %q using a financial document.\n", unit.Question)
	} else {
		fmt.Fprintf(&sb, "Task: produce the %q section of a financial analysis report.\n", report.Titles[unit.Section])
	}
	if ledgerContext != "" {
		fmt.Fprintf(&sb, "\nRecent analysis history:\n%s\n", ledgerContext)
	}
	sb.WriteString("\nReturn the planning JSON now.")

	raw, err := p.completer.Complete(ctx, []provider.Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, 400, 0.2)
	if err != nil {
		slog.Warn("planner completion failed, using default plan", "error", err)
		return defaultPlan(unit), ""
	}

	plan, err := parsePlan(raw)
	if err != nil {
		slog.Warn("planner output unparseable, using default plan", "error", err)
		return defaultPlan(unit), raw
	}
	return plan, raw
}

// parsePlan locates the outermost {...} span in raw and decodes it.
// Nil array fields are replaced with empty slices so downstream stages
// never see absent fields.
func parsePlan(raw string) (Plan, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return Plan{}, fmt.Errorf("no JSON object in planner output")
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return Plan{}, fmt.Errorf("unmarshaling plan: %w", err)
	}
	if plan.Objective == "" && len(plan.RetrievalQueries) == 0 {
		return Plan{}, fmt.Errorf("planner output has no objective or queries")
	}

	if plan.RetrievalQueries == nil {
		plan.RetrievalQueries = []string{}
	}
	if plan.FallbackQueries == nil {
		plan.FallbackQueries = []string{}
	}
	if plan.AnalysisFocus == nil {
		plan.AnalysisFocus = []string{}
	}
	if plan.SubQuestions == nil {
		plan.SubQuestions = []string{}
	}
	if plan.ToolSuggestions == nil {
		plan.ToolSuggestions = []string{}
	}
	return plan, nil
}

// defaultPlan builds a deterministic plan from the unit fields so the
// pipeline never halts on malformed planning output.
func defaultPlan(unit Unit) Plan {
	topic := unit.Question
	if !unit.IsQuestion() {
		topic = report.Titles[unit.Section]
	}
	return Plan{
		Objective: fmt.Sprintf("Analyze %s for %s", topic, unit.Company),
		RetrievalQueries: []string{
			fmt.Sprintf("%s %s", unit.Company, topic),
			topic,
		},
		FallbackQueries: []string{
			fmt.Sprintf("%s financial results", unit.Company),
			"revenue profit outlook risks",
		},
		AnalysisFocus:   []string{topic},
		SubQuestions:    []string{},
		ToolSuggestions: []string{"numeric_summary", "keyword_coverage"},
	}
}

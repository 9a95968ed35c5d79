// Package agent implements the coordinated generation pipeline: a fixed
// state machine (planning, retrieving, tooling, drafting, validating,
// formatting) executed once per report section or question.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkovalev/finsight/internal/chunk"
	"github.com/mkovalev/finsight/internal/index"
	"github.com/mkovalev/finsight/internal/ledger"
	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
)

// Completer is the text-completion capability consumed by the pipeline
// stages.
type Completer interface {
	Complete(ctx context.Context, messages []provider.Message, maxTokens int, temperature float64) (string, error)
}

// Unit is one unit of work: a single report section or a single question
// about a company.
type Unit struct {
	Company  string
	Section  string // report section key; empty for questions
	Question string // non-empty for question answering
}

// IsQuestion reports whether the unit is a question-answering unit.
func (u Unit) IsQuestion() bool {
	return u.Question != ""
}

// Pipeline stage names, in execution order.
const (
	stagePlanning   = "planning"
	stageRetrieving = "retrieving"
	stageTooling    = "tooling"
	stageDrafting   = "drafting"
	stageValidating = "validating"
	stageFormatting = "formatting"
)

// Pipeline is the coordinated pipeline. Stage order is strict and
// sequential per unit of work; the ledger is updated once per state
// transition.
type Pipeline struct {
	completer Completer
	embedder  index.Embedder
	ledgers   *ledger.Service

	planner    *Planner
	researcher *Researcher
	analyst    *Analyst
	validator  *Validator
}

// New creates the coordinated Pipeline with all stages wired to the given
// capabilities.
func New(completer Completer, embedder index.Embedder, ledgers *ledger.Service) *Pipeline {
	return &Pipeline{
		completer:  completer,
		embedder:   embedder,
		ledgers:    ledgers,
		planner:    NewPlanner(completer),
		researcher: NewResearcher(embedder),
		analyst:    NewAnalyst(completer),
		validator:  NewValidator(completer),
	}
}

func (p *Pipeline) Name() string  { return "coordinated" }
func (p *Pipeline) Title() string { return "Coordinated Agent Pipeline" }

func (p *Pipeline) Description() string {
	return "Six-stage pipeline per section: planning, hybrid retrieval, tool analysis, drafting, validation, formatting."
}

// BuildIndex chunks cleaned document text with the coordinated profile and
// builds the retrieval index for it.
func (p *Pipeline) BuildIndex(ctx context.Context, text string) (*index.Index, error) {
	chunks := chunk.Split(text, chunk.DefaultSize, chunk.DefaultOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}
	return index.Build(ctx, p.embedder, chunks)
}

// RunReport generates all four report sections as independent pipeline
// invocations over one shared index. The index is returned so callers can
// reuse it for follow-up questions.
func (p *Pipeline) RunReport(ctx context.Context, text, company string) (report.Sections, *index.Index, error) {
	ix, err := p.BuildIndex(ctx, text)
	if err != nil {
		return report.Sections{}, nil, fmt.Errorf("building index: %w", err)
	}

	var sections report.Sections
	for _, key := range report.SectionOrder {
		content, err := p.runUnit(ctx, ix, Unit{Company: company, Section: key})
		if err != nil {
			return report.Sections{}, nil, fmt.Errorf("generating %s: %w", key, err)
		}
		sections.Set(key, content)
	}
	return sections, ix, nil
}

// RunQuestion answers a free-form question against an already-built index.
func (p *Pipeline) RunQuestion(ctx context.Context, ix *index.Index, question, company string) (string, error) {
	return p.runUnit(ctx, ix, Unit{Company: company, Question: question})
}

// runUnit executes the full state machine for one unit of work.
func (p *Pipeline) runUnit(ctx context.Context, ix *index.Index, unit Unit) (string, error) {
	led := p.ledgers.For(unit.Company)
	unitName := unit.Section
	if unit.IsQuestion() {
		unitName = "question"
	}
	log := slog.With("pipeline", p.Name(), "company", unit.Company, "unit", unitName)

	log.Debug("stage start", "stage", stagePlanning)
	plan, rawPlan := p.planner.Plan(ctx, unit, led.Context())
	if rawPlan == "" {
		rawPlan = plan.Objective
	}
	led.Append("planner", rawPlan)

	log.Debug("stage start", "stage", stageRetrieving)
	evidence, err := p.researcher.Gather(ctx, ix, plan)
	if err != nil {
		return "", fmt.Errorf("gathering evidence: %w", err)
	}
	led.Append("researcher", fmt.Sprintf("retrieved %d snippets for %q", evidence.CoverageScore(), plan.Objective))

	log.Debug("stage start", "stage", stageTooling, "coverage", evidence.CoverageScore())
	toolOutputs := RunTools(plan, evidence.Snippets)
	led.Append("tools", formatToolOutputs(toolOutputs))

	log.Debug("stage start", "stage", stageDrafting)
	draft, err := p.analyst.Draft(ctx, unit, plan, toolOutputs, evidence, led.Context())
	if err != nil {
		return "", fmt.Errorf("drafting: %w", err)
	}
	led.Append("analyst", draft)

	log.Debug("stage start", "stage", stageValidating)
	issues := p.validator.Check(draft, unit.IsQuestion())
	if len(issues) > 0 {
		log.Debug("draft needs repair", "issues", len(issues))
		repaired, err := p.validator.Repair(ctx, draft, issues, evidence, unit.IsQuestion())
		if err != nil {
			return "", fmt.Errorf("repairing draft: %w", err)
		}
		draft = repaired
		led.Append("validator", fmt.Sprintf("repaired %d issues: %s", len(issues), strings.Join(issues, "; ")))
	} else {
		led.Append("validator", "draft passed all checks")
	}

	log.Debug("stage start", "stage", stageFormatting)
	var final string
	if unit.IsQuestion() {
		final = FormatAnswer(draft)
	} else {
		final = FormatSection(draft)
	}
	led.Append("formatter", final)

	return final, nil
}

func formatToolOutputs(outputs []ToolOutput) string {
	if len(outputs) == 0 {
		return "no tools invoked"
	}
	parts := make([]string, len(outputs))
	for i, t := range outputs {
		parts[i] = fmt.Sprintf("%s:\n%s", t.Name, t.Output)
	}
	return strings.Join(parts, "\n\n")
}

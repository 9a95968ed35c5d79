package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/mkovalev/finsight/internal/provider"
)

// mockCompleter scripts completion responses for pipeline stage tests.
type mockCompleter struct {
	completeFn func(ctx context.Context, messages []provider.Message, maxTokens int, temperature float64) (string, error)
	calls      int
}

func (m *mockCompleter) Complete(ctx context.Context, messages []provider.Message, maxTokens int, temperature float64) (string, error) {
	m.calls++
	return m.completeFn(ctx, messages, maxTokens, temperature)
}

func TestPlanParsesCompletionJSON(t *testing.T) {
	completer := &mockCompleter{completeFn: func(context.Context, []provider.Message, int, float64) (string, error) {
		return `Here is the plan: {"objective":"assess revenue","retrievalQueries":["revenue growth"],"fallbackQueries":["financials"],"analysisFocus":["revenue"],"subQuestions":[],"toolSuggestions":["numeric_summary"]}`, nil
	}}
	planner := NewPlanner(completer)

	plan, raw := planner.Plan(context.Background(), Unit{Company: "acme", Section: "overview"}, "")
	if plan.Objective != "assess revenue" {
		t.Errorf("objective = %q, want %q", plan.Objective, "assess revenue")
	}
	if len(plan.RetrievalQueries) != 1 || plan.RetrievalQueries[0] != "revenue growth" {
		t.Errorf("retrieval queries = %v", plan.RetrievalQueries)
	}
	if raw == "" {
		t.Error("raw completion text not returned")
	}
}

func TestPlanDefaultsOnMalformedOutput(t *testing.T) {
	completer := &mockCompleter{completeFn: func(context.Context, []provider.Message, int, float64) (string, error) {
		return "I cannot produce JSON right now.", nil
	}}
	planner := NewPlanner(completer)

	unit := Unit{Company: "acme", Section: "keyRisks"}
	plan, _ := planner.Plan(context.Background(), unit, "")
	if plan.Objective == "" {
		t.Error("default plan has empty objective")
	}
	if len(plan.RetrievalQueries) == 0 {
		t.Error("default plan has no retrieval queries")
	}
	if len(plan.FallbackQueries) == 0 {
		t.Error("default plan has no fallback queries")
	}
	if len(plan.ToolSuggestions) != 2 {
		t.Errorf("default plan suggests %d tools, want both", len(plan.ToolSuggestions))
	}
}

func TestPlanDefaultsOnCompletionError(t *testing.T) {
	completer := &mockCompleter{completeFn: func(context.Context, []provider.Message, int, float64) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	planner := NewPlanner(completer)

	plan, raw := planner.Plan(context.Background(), Unit{Company: "acme", Question: "what is the margin?"}, "")
	if plan.Objective == "" {
		t.Error("default plan has empty objective")
	}
	if raw != "" {
		t.Errorf("raw = %q, want empty on completion failure", raw)
	}
}

func TestParsePlanNilSlicesBecomeEmpty(t *testing.T) {
	plan, err := parsePlan(`{"objective":"x"}`)
	if err != nil {
		t.Fatalf("parsePlan failed: %v", err)
	}
	for name, s := range map[string][]string{
		"retrievalQueries": plan.RetrievalQueries,
		"fallbackQueries":  plan.FallbackQueries,
		"analysisFocus":    plan.AnalysisFocus,
		"subQuestions":     plan.SubQuestions,
		"toolSuggestions":  plan.ToolSuggestions,
	} {
		if s == nil {
			t.Errorf("%s is nil, want empty slice", name)
		}
	}
}

func TestParsePlanRejectsEmptyObject(t *testing.T) {
	if _, err := parsePlan(`{}`); err == nil {
		t.Error("expected error for plan with no objective or queries")
	}
	if _, err := parsePlan("no braces at all"); err == nil {
		t.Error("expected error when no JSON object present")
	}
}

func TestParsePlanExtractsEmbeddedObject(t *testing.T) {
	plan, err := parsePlan("```json\n{\"objective\":\"x\",\"retrievalQueries\":[\"a\"]}\n```")
	if err != nil {
		t.Fatalf("parsePlan failed: %v", err)
	}
	if plan.Objective != "x" {
		t.Errorf("objective = %q, want %q", plan.Objective, "x")
	}
}

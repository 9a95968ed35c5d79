// Package orchestrator selects which generation pipeline runs a request,
// enforces the enabled-mode allow-list, and degrades the specialized
// pipeline into the coordinated one on provider failure.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mkovalev/finsight/internal/index"
	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
)

// Mode names of the built-in pipelines.
const (
	ModeCoordinated = "coordinated"
	ModeSpecialized = "specialized-agent"
)

// Pipeline is a generation strategy. Both pipeline variants implement it;
// the orchestrator depends only on this interface plus the registry, so
// new modes can be added without touching orchestration logic.
type Pipeline interface {
	Name() string
	Title() string
	Description() string

	// RunReport generates all four sections from cleaned document text and
	// returns the retrieval index it built for follow-up questions.
	RunReport(ctx context.Context, text, company string) (report.Sections, *index.Index, error)

	// RunQuestion answers a question against an already-built index.
	RunQuestion(ctx context.Context, ix *index.Index, question, company string) (string, error)
}

// ConfigError reports a request for a mode that is not enabled.
type ConfigError struct {
	Mode    string
	Allowed []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mode %q is not enabled; allowed modes: %s", e.Mode, strings.Join(e.Allowed, ", "))
}

// Result is the terminal output of one orchestrated request. Exactly one
// Result is produced per request; the fallback fields are set only when a
// retry occurred.
type Result struct {
	Sections *report.Sections `json:"sections,omitempty"`
	Answer   string           `json:"answer,omitempty"`

	Mode         string    `json:"mode"`
	StrategyName string    `json:"strategyName"`
	Timestamp    time.Time `json:"timestamp"`

	Fallback       bool   `json:"fallback,omitempty"`
	OriginalMode   string `json:"originalMode,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`

	// Index is the retrieval index built during report generation, retained
	// by callers for follow-up questions. Not serialized.
	Index *index.Index `json:"-"`
}

// ModeInfo describes one registered mode for listing endpoints.
type ModeInfo struct {
	Mode        string `json:"mode"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// Orchestrator is the single entry point for report generation and
// question answering, hiding which pipeline variant executes.
type Orchestrator struct {
	pipelines   map[string]Pipeline
	defaultMode string
	enabled     map[string]bool
}

// New creates an Orchestrator over the given pipelines. defaultMode is
// substituted for absent or unknown modes; enabledModes is the allow-list.
func New(defaultMode string, enabledModes []string, pipelines ...Pipeline) *Orchestrator {
	o := &Orchestrator{
		pipelines:   make(map[string]Pipeline, len(pipelines)),
		defaultMode: defaultMode,
		enabled:     make(map[string]bool, len(enabledModes)),
	}
	for _, p := range pipelines {
		o.pipelines[p.Name()] = p
	}
	for _, m := range enabledModes {
		m = strings.TrimSpace(m)
		if m != "" {
			o.enabled[m] = true
		}
	}
	return o
}

// resolve maps the requested mode to a registered, enabled pipeline.
// Absent or unknown modes silently resolve to the default; a resolved
// mode outside the allow-list is a configuration error.
func (o *Orchestrator) resolve(mode string) (Pipeline, error) {
	if _, ok := o.pipelines[mode]; !ok {
		mode = o.defaultMode
	}
	p, ok := o.pipelines[mode]
	if !ok {
		return nil, &ConfigError{Mode: mode, Allowed: o.allowedModes()}
	}
	if !o.enabled[mode] {
		return nil, &ConfigError{Mode: mode, Allowed: o.allowedModes()}
	}
	return p, nil
}

func (o *Orchestrator) allowedModes() []string {
	var allowed []string
	for m := range o.enabled {
		if _, ok := o.pipelines[m]; ok {
			allowed = append(allowed, m)
		}
	}
	sort.Strings(allowed)
	return allowed
}

// GenerateReport runs the resolved pipeline over cleaned document text.
// If the specialized pipeline fails with a provider error and the
// coordinated pipeline is enabled, the request is retried once on the
// coordinated pipeline and the result is tagged with fallback metadata.
func (o *Orchestrator) GenerateReport(ctx context.Context, mode, text, company string) (*Result, error) {
	p, err := o.resolve(mode)
	if err != nil {
		return nil, err
	}

	sections, ix, err := p.RunReport(ctx, text, company)
	if err != nil {
		fb, ok := o.fallbackFor(p, err)
		if !ok {
			return nil, err
		}
		slog.Warn("pipeline failed, falling back",
			"failed_mode", p.Name(), "fallback_mode", fb.Name(), "error", err)
		sections, ix, fbErr := fb.RunReport(ctx, text, company)
		if fbErr != nil {
			// One-hop only: the fallback pipeline's error propagates as-is.
			return nil, fbErr
		}
		r := o.newResult(fb)
		r.Sections = &sections
		r.Index = ix
		r.Fallback = true
		r.OriginalMode = p.Name()
		r.FallbackReason = err.Error()
		return r, nil
	}

	r := o.newResult(p)
	r.Sections = &sections
	r.Index = ix
	return r, nil
}

// AnswerQuestion runs the resolved pipeline's question path against an
// already-built retrieval index, with the same fallback policy as
// GenerateReport.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, mode string, ix *index.Index, question, company string) (*Result, error) {
	p, err := o.resolve(mode)
	if err != nil {
		return nil, err
	}

	answer, err := p.RunQuestion(ctx, ix, question, company)
	if err != nil {
		fb, ok := o.fallbackFor(p, err)
		if !ok {
			return nil, err
		}
		slog.Warn("pipeline failed, falling back",
			"failed_mode", p.Name(), "fallback_mode", fb.Name(), "error", err)
		answer, fbErr := fb.RunQuestion(ctx, ix, question, company)
		if fbErr != nil {
			return nil, fbErr
		}
		r := o.newResult(fb)
		r.Answer = answer
		r.Fallback = true
		r.OriginalMode = p.Name()
		r.FallbackReason = err.Error()
		return r, nil
	}

	r := o.newResult(p)
	r.Answer = answer
	return r, nil
}

// fallbackFor decides whether a failed pipeline run gets its one retry on
// the coordinated pipeline. Only provider errors from the specialized
// pipeline qualify; the reverse direction never happens.
func (o *Orchestrator) fallbackFor(failed Pipeline, err error) (Pipeline, bool) {
	if failed.Name() != ModeSpecialized {
		return nil, false
	}
	var pErr *provider.Error
	if !errors.As(err, &pErr) {
		return nil, false
	}
	fb, ok := o.pipelines[ModeCoordinated]
	if !ok || !o.enabled[ModeCoordinated] {
		return nil, false
	}
	return fb, true
}

func (o *Orchestrator) newResult(p Pipeline) *Result {
	return &Result{
		Mode:         p.Name(),
		StrategyName: p.Title(),
		Timestamp:    time.Now().UTC(),
	}
}

// Modes lists every registered mode with its enabled status, sorted by
// mode name.
func (o *Orchestrator) Modes() []ModeInfo {
	infos := make([]ModeInfo, 0, len(o.pipelines))
	for name, p := range o.pipelines {
		infos = append(infos, ModeInfo{
			Mode:        name,
			Name:        p.Title(),
			Description: p.Description(),
			Enabled:     o.enabled[name],
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Mode < infos[j].Mode })
	return infos
}

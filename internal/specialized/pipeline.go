// Package specialized implements the persona pipeline: one fixed persona
// and temperature per report section, no planning or validation stages,
// and all four sections generated concurrently.
package specialized

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkovalev/finsight/internal/agent"
	"github.com/mkovalev/finsight/internal/chunk"
	"github.com/mkovalev/finsight/internal/index"
	"github.com/mkovalev/finsight/internal/ledger"
	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/report"
)

// Chunking profile: coarser windows than the coordinated pipeline, since
// personas get a single retrieval pass per section.
const (
	chunkSize    = 320
	chunkOverlap = 70
	sectionTopK  = 5
)

const questionInstruction = `Answer the user's question about the company using only the provided excerpts, in 2-3 plain sentences. If the excerpts do not contain the answer, say so. No markdown.`

// Pipeline is the specialized-agent pipeline.
type Pipeline struct {
	completer agent.Completer
	embedder  index.Embedder
	ledgers   *ledger.Service
}

// New creates the specialized Pipeline.
func New(completer agent.Completer, embedder index.Embedder, ledgers *ledger.Service) *Pipeline {
	return &Pipeline{completer: completer, embedder: embedder, ledgers: ledgers}
}

func (p *Pipeline) Name() string  { return "specialized-agent" }
func (p *Pipeline) Title() string { return "Specialized Agent Pipeline" }

func (p *Pipeline) Description() string {
	return "One fixed persona per section with hand-written retrieval queries; all four sections generated concurrently."
}

// BuildIndex chunks cleaned document text with this pipeline's coarser
// profile and builds the retrieval index.
func (p *Pipeline) BuildIndex(ctx context.Context, text string) (*index.Index, error) {
	chunks := chunk.Split(cleanText(text), chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}
	return index.Build(ctx, p.embedder, chunks)
}

// RunReport generates all four sections concurrently over one shared
// read-only index. The first failing section cancels the rest.
func (p *Pipeline) RunReport(ctx context.Context, text, company string) (report.Sections, *index.Index, error) {
	ix, err := p.BuildIndex(ctx, text)
	if err != nil {
		return report.Sections{}, nil, fmt.Errorf("building index: %w", err)
	}

	results := make(map[string]string, len(report.SectionOrder))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, key := range report.SectionOrder {
		key := key
		g.Go(func() error {
			content, err := p.runSection(gCtx, ix, key, company)
			if err != nil {
				return fmt.Errorf("generating %s: %w", key, err)
			}
			mu.Lock()
			results[key] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.Sections{}, nil, err
	}

	var sections report.Sections
	for key, content := range results {
		sections.Set(key, content)
	}
	return sections, ix, nil
}

// runSection retrieves evidence with the section's fixed query and issues
// one persona-specific completion.
func (p *Pipeline) runSection(ctx context.Context, ix *index.Index, section, company string) (string, error) {
	persona := personas[section]
	query := sectionQueries[section]

	chunks, err := ix.Search(ctx, p.embedder, query, sectionTopK)
	if err != nil {
		return "", fmt.Errorf("retrieving evidence: %w", err)
	}

	var excerpts []string
	for _, c := range chunks {
		excerpts = append(excerpts, c.Text)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", company)
	fmt.Fprintf(&sb, "Write the %s section as plain text bullet lines, each starting with \"• \". No markdown symbols.\n", report.Titles[section])
	fmt.Fprintf(&sb, "\n[Excerpts]\n%s\n", strings.Join(excerpts, "\n\n---\n\n"))

	draft, err := p.completer.Complete(ctx, []provider.Message{
		{Role: "system", Content: persona.Role},
		{Role: "user", Content: sb.String()},
	}, 700, persona.Temperature)
	if err != nil {
		return "", err
	}

	final := normalizeSection(draft)
	p.ledgers.For(company).Append(persona.Name, final)
	return final, nil
}

// RunQuestion answers a question with a single completion over top-5
// retrieved excerpts. There is no validation stage in this pipeline.
func (p *Pipeline) RunQuestion(ctx context.Context, ix *index.Index, question, company string) (string, error) {
	chunks, err := ix.Search(ctx, p.embedder, question, sectionTopK)
	if err != nil {
		return "", fmt.Errorf("retrieving evidence: %w", err)
	}

	var excerpts []string
	for _, c := range chunks {
		excerpts = append(excerpts, c.Text)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\nQuestion: %s\n", company, question)
	fmt.Fprintf(&sb, "\n[Excerpts]\n%s\n", strings.Join(excerpts, "\n\n---\n\n"))

	raw, err := p.completer.Complete(ctx, []provider.Message{
		{Role: "system", Content: questionInstruction},
		{Role: "user", Content: sb.String()},
	}, 300, 0.2)
	if err != nil {
		return "", err
	}

	answer := normalizeAnswer(raw)
	p.ledgers.For(company).Append("qa", answer)
	return answer, nil
}

package compose

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// Fixed response texts. Callers and tests match on these exactly, so they must
// never be reworded casually.
const (
	RefusalInsufficientData = "I don't have enough verified data to answer."
	RefusalOutOfDomain      = "This query is not related to farming."
)

const (
	// maxSourceChars caps each source's contribution to the LLM prompt.
	maxSourceChars = 2000

	// stitchSources and stitchLineChars bound the deterministic fallback.
	stitchSources   = 4
	stitchLineChars = 140
)

// TextGenerator is the single LLM call the composer needs. It is optional and
// treated as unreliable.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Composer merges aggregated sources into one final answer. With an LLM
// configured it writes a grounded summary constrained to the supplied sources;
// without one, or when the LLM fails, it stitches the top sources
// deterministically.
type Composer struct {
	llm TextGenerator
}

// NewComposer creates a Composer. llm may be nil, in which case every answer
// comes from the deterministic stitcher.
func NewComposer(llm TextGenerator) *Composer {
	return &Composer{llm: llm}
}

// Compose produces the final answer text. An empty source list yields exactly
// the insufficient-data refusal.
func (c *Composer) Compose(ctx context.Context, query string, sources []domain.SourceDocument) string {
	if len(sources) == 0 {
		return RefusalInsufficientData
	}

	if c.llm != nil {
		if out := c.composeLLM(ctx, query, sources); out != "" {
			return out
		}
	}
	return stitch(sources)
}

func (c *Composer) composeLLM(ctx context.Context, query string, sources []domain.SourceDocument) string {
	var b strings.Builder
	b.WriteString("You are an agriculture assistant. Answer ONLY using the provided sources. ")
	b.WriteString("Do not invent data. If sources are insufficient, say: '")
	b.WriteString(RefusalInsufficientData)
	b.WriteString("' Keep it concise and practical.\n\nUser question:\n")
	b.WriteString(query)
	b.WriteString("\n\nSources:\n")
	for i, s := range sources {
		text := s.Text
		if len(text) > maxSourceChars {
			text = text[:maxSourceChars]
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n%s\n\n", i+1, s.Kind, s.Title, text)
	}

	out, err := c.llm.Generate(ctx, b.String())
	if err != nil {
		log.Printf("compose: llm failed, using stitched summary: %v", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// stitch builds a deterministic answer from the top sources: a header, one
// line per source, and a refinement hint.
func stitch(sources []domain.SourceDocument) string {
	lines := []string{"Verified information:"}
	for i, s := range sources {
		if i >= stitchSources {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Title, firstLine(s.Text, stitchLineChars)))
	}
	lines = append(lines, "Ask a follow-up to refine location or crop if needed.")
	return strings.Join(lines, "\n")
}

func firstLine(text string, maxChars int) string {
	line, _, _ := strings.Cut(text, "\n")
	if len(line) > maxChars {
		line = line[:maxChars]
	}
	return line
}

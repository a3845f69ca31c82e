// Package template provides an answer generator that needs no model: it
// lays the retrieved passages out under a fixed heading. It also builds the
// passage context shared by model-backed generators.
package template

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.AnswerGenerator = (*Generator)(nil)

const (
	// MaxContextPassages is how many ranked passages enter the context.
	MaxContextPassages = 5

	// MaxPassageChars caps each passage's text in the context.
	MaxPassageChars = 800

	// NoInformation is answered when nothing was retrieved.
	NoInformation = "Sorry, no campaign information was found to answer this question."

	unknownTitle = "Unknown campaign"
)

// Generator composes answers from a fixed template.
type Generator struct{}

// New creates a template generator.
func New() *Generator {
	return &Generator{}
}

// Generate lays out the retrieved context.
func (g *Generator) Generate(_ context.Context, _ string, passages []domain.SearchResult) (string, error) {
	if len(passages) == 0 {
		return NoInformation, nil
	}
	return "Campaign information:\n\n" + BuildContext(passages) +
		"\n\nThis information is taken from the campaign details.", nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return "template"
}

// BuildContext formats the top passages as numbered blocks separated by rules.
func BuildContext(passages []domain.SearchResult) string {
	if len(passages) > MaxContextPassages {
		passages = passages[:MaxContextPassages]
	}

	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		title := p.Chunk.Title
		if title == "" {
			title = unknownTitle
		}
		parts = append(parts, fmt.Sprintf("[%d] Campaign: %s\nCampaign ID: %s\nContent: %s",
			i+1, title, p.Chunk.CampaignID, truncate(p.Chunk.Text, MaxPassageChars)))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

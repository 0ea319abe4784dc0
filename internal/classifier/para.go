package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/paraflow/paraflow/internal/ai"
	"github.com/paraflow/paraflow/internal/types"
)

// maxPromptText bounds how much of the document is sent to the model.
// 4000 runes is enough for the opening sections that carry the PARA signal.
const maxPromptText = 4000

// paraResponse is the JSON shape the model is instructed to return.
type paraResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// PARAClassifier is the LLM-backed primary classifier. It asks the model
// for a category, a confidence, and reasoning, biased by the user's
// declared occupation, areas, and interests.
type PARAClassifier struct {
	client *ai.Client
}

var _ Classifier = (*PARAClassifier)(nil)

// NewPARAClassifier creates the LLM-backed primary classifier.
func NewPARAClassifier(client *ai.Client) (*PARAClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	return &PARAClassifier{client: client}, nil
}

// Source implements Classifier.
func (p *PARAClassifier) Source() types.Source {
	return types.SourcePrimary
}

// Classify sends the classification prompt and parses the model's JSON
// answer. Any failure (API, parse, unknown category) is returned as an
// error; the guard layer converts it into the deterministic fallback.
func (p *PARAClassifier) Classify(ctx context.Context, text string, uctx *types.UserContext) (*types.ClassificationResult, error) {
	prompt := buildPARAPrompt(text, uctx)

	raw, err := p.client.Complete(ctx, "para-classification", prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	parsed, err := ai.Parse[paraResponse](raw, "para classification response")
	if err != nil {
		return nil, err
	}

	category, err := types.ParseCategory(parsed.Category)
	if err != nil {
		return nil, fmt.Errorf("model returned unusable category: %w", err)
	}

	return &types.ClassificationResult{
		Category:   category,
		Confidence: types.ClampUnit(parsed.Confidence),
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
		Source:     types.SourcePrimary,
		HasContext: !uctx.Empty(),
	}, nil
}

// buildPARAPrompt composes the classification prompt. The user context is
// included as explicit bias: documents touching a declared area of
// responsibility lean Areas rather than Resources.
func buildPARAPrompt(text string, uctx *types.UserContext) string {
	var b strings.Builder

	b.WriteString("Classify the following document into exactly one PARA category.\n\n")
	b.WriteString("Categories:\n")
	b.WriteString("- Projects: actionable work with a defined outcome and a deadline\n")
	b.WriteString("- Areas: an ongoing responsibility with no end date\n")
	b.WriteString("- Resources: reference material kept for future use\n")
	b.WriteString("- Archives: inactive, completed, or abandoned items\n\n")

	if !uctx.Empty() {
		b.WriteString("User context (bias your decision toward these declared responsibilities):\n")
		if uctx.Occupation != "" {
			fmt.Fprintf(&b, "- Occupation: %s\n", uctx.Occupation)
		}
		if len(uctx.Areas) > 0 {
			fmt.Fprintf(&b, "- Declared areas of responsibility: %s\n", strings.Join(uctx.Areas, ", "))
		}
		if len(uctx.Interests) > 0 {
			fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(uctx.Interests, ", "))
		}
		b.WriteString("A document about a declared area is Areas, not Resources, unless it is clearly a one-off project or already finished.\n\n")
	}

	b.WriteString("Document:\n---\n")
	b.WriteString(truncateRunes(text, maxPromptText))
	b.WriteString("\n---\n\n")

	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"category": "Projects|Areas|Resources|Archives", "confidence": 0.0-1.0, "reasoning": "one or two sentences"}`)
	b.WriteString("\n")

	return b.String()
}

// truncateRunes bounds s to max runes without splitting a multi-byte
// character (the source documents are largely Korean).
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "\n[...truncated...]"
}

// Package summarizer provides AI-powered text summarization implementations.
package summarizer

import (
	"context"

	"trendpulse/internal/domain/entity"
)

// NoOp is a summarizer that returns the original text without modification.
// This is useful for testing and development when summarization is not needed.
type NoOp struct{}

// NewNoOp creates a new NoOp summarizer.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Summarize returns the original text truncated to a reasonable length,
// ignoring the requested language.
func (n *NoOp) Summarize(ctx context.Context, text string, lang entity.Lang) (string, error) {
	return n.SummarizeWithLimit(ctx, text, lang, 500)
}

// SummarizeWithLimit truncates text to charLimit runes, matching the
// Claude/OpenAI SummarizeWithLimit contract without calling out to any API.
func (n *NoOp) SummarizeWithLimit(_ context.Context, text string, _ entity.Lang, charLimit int) (string, error) {
	r := []rune(text)
	if len(r) <= charLimit {
		return text, nil
	}
	return string(r[:charLimit]) + "...", nil
}

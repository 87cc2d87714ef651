// Package llm abstracts the text-generation capability used for report
// synthesis.
package llm

import "context"

// Options are per-call generation settings.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// TextGenerator produces prose from a prompt. Implementations report
// their own availability so callers can fall back to template rendering.
type TextGenerator interface {
	Available() bool
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

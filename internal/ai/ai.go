// Package ai declares the language-model contract consumed by the evaluator
// panel and the matching pipeline.
package ai

import "context"

// Generator produces free text for a prompt. Implementations are subject to
// an external rate quota; callers pace their requests through the panel
// coordinator's limiter.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, temperature float32) (string, error)
}

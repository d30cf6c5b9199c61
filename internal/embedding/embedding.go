// Package embedding provides the text embedding contract used by the vector
// index and the skill similarity engine.
package embedding

import "context"

// Embedder turns a text into a fixed-width numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

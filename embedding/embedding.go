// Package embedding defines the boundary to the remote embedding provider.
//
// Document mode and query mode are two distinct embedding intents: document
// vectors are only meaningfully compared against query vectors, never against
// each other. Stored rows must always carry document-mode vectors.
package embedding

import (
	"context"
	"errors"
)

// ErrProvider marks transport or decode failures from the embedding provider.
// No retries happen behind this interface; retry policy belongs to the caller.
var ErrProvider = errors.New("embedding provider error")

type Config struct {
	Region    string `yaml:"region"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// Embedder converts texts to fixed-dimension vectors.
//
// Both methods preserve input order: the i-th vector belongs to the i-th
// text, and the output length always equals the input length or the call
// fails outright. Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedDocuments embeds texts in document mode. Batches above the
	// provider's per-call ceiling are split transparently.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueries embeds texts in query mode, typically with a single text.
	EmbedQueries(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector this embedder
	// produces.
	Dimensions() int
}

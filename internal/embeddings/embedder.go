package embeddings

import (
	"context"
	"errors"
)

// ErrEmbeddingFailed indicates a text could not be embedded after all
// retries and batch-size degradation were exhausted.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	// The dimension is fixed per model and known before any call is made.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// Package embeddings
package embeddings

import "context"

// Embedder produces embedding vectors from text. The model behind it is an
// external collaborator; the store never validates the dimensionality of
// what it returns.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Close releases any resources held by the embedder.
	Close() error
}

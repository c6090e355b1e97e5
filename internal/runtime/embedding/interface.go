package embedding

import (
	"context"
)

// Vector is a dense embedding as produced by the provider.
type Vector []float32

type Embedder interface {
	// Chunk splits text into chunks sized for the provider's token limit
	Chunk(text string) []string
	// Embed creates embeddings for multiple text chunks
	Embed(ctx context.Context, chunks []string) ([]Vector, error)
	// EmbedSingle creates embedding for a single text (convenience method)
	EmbedSingle(ctx context.Context, text string) (Vector, error)
	// Dimensions reports the width of the vectors this embedder produces;
	// the collection must be created with the same size
	Dimensions() int
}

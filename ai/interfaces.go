package ai

import "context"

// Embedder turns text into vectors for semantic search. The search
// layer embeds one query at a time, while the build pipeline embeds
// corpus texts in batches from several workers at once, so
// implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of texts, returning one vector per
	// input in the same order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

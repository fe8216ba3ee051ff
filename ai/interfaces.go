package ai

import "context"

// Completer sends a completion request to an LLM service.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends a system prompt plus user content and returns the raw
	// response text. Callers own parsing; responses may wrap JSON in prose
	// or code fences. Returns an error if the completion call fails.
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one call.
	// The returned slice is index-aligned with the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Completer and
// Embedder instances sharing configuration and resources.
type Provider interface {
	// Completer returns the LLM completion service.
	Completer() Completer

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}

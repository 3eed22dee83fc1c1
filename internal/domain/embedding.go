package domain

import "context"

// EmbeddingResult is a vector plus token usage reported by the provider.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is implemented by embedders that can probe provider
// availability without consuming tokens.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

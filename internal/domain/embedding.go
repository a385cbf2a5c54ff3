package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// Dimension is fixed at construction and never changes for the lifetime of the value.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	Dimension() int
}

// Provider is an Embedder with a stable identity. The name selects the physical
// index, so two providers with different vector spaces must have different names.
type Provider interface {
	Embedder
	Name() string
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CheckDimension rejects vectors whose length differs from the provider dimension.
func CheckDimension(vec []float32, dim int) error {
	if len(vec) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorDimMismatch, len(vec), dim)
	}
	return nil
}

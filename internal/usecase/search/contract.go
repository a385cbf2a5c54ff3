package search

import (
	"context"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/search/knn"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
)

// Repository defines the index gateway contract for search.
type Repository interface {
	Search(ctx context.Context, q knn.Query) ([]result.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

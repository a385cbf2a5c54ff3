package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/search/knn"
	"github.com/kailas-cloud/scifinder/internal/domain/search/request"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
)

// Service runs semantic article search: compose, embed, KNN, map.
type Service struct {
	repo          Repository
	embed         Embedder
	numCandidates int
	logger        *zap.Logger
}

// New creates a search service. numCandidates <= 0 uses knn.NumCandidates.
func New(repo Repository, embed Embedder, numCandidates int, logger *zap.Logger) *Service {
	if numCandidates <= 0 {
		numCandidates = knn.NumCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, numCandidates: numCandidates, logger: logger}
}

// NumCandidates returns the candidate pool size, which is also the top_k ceiling.
func (s *Service) NumCandidates() int { return s.numCandidates }

// Search returns results ordered by the store. An empty slice means no matches.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	plan, err := Compose(req, s.numCandidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	emb, err := s.embed.Embed(ctx, plan.EmbeddingText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.repo.Search(ctx, knn.Query{
		Vector:        emb.Embedding,
		K:             plan.K,
		NumCandidates: plan.NumCandidates,
		Filters:       plan.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.logger.Debug("Search completed",
		zap.Int("filters", len(plan.Filters.All())),
		zap.Int("k", plan.K),
		zap.Int("hits", len(hits)),
	)
	return MapHits(hits, s.logger), nil
}

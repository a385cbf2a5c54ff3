// Package ingest adds single articles to the index, either as structured
// payloads or as uploaded files.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
)

// Repository writes documents to the index.
type Repository interface {
	Upsert(ctx context.Context, doc article.Document) error
}

// Normalizer embeds drafts.
type Normalizer interface {
	ToDocument(ctx context.Context, d normalizer.Draft) (article.Document, error)
}

// TextExtractor turns an uploaded file into plain text.
type TextExtractor func(filename string, data []byte) (string, error)

// Service handles single-document ingestion.
type Service struct {
	repo    Repository
	norm    Normalizer
	extract TextExtractor
	now     func() time.Time
	logger  *zap.Logger
}

// New creates an ingest service.
func New(repo Repository, norm Normalizer, extract TextExtractor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, norm: norm, extract: extract, now: time.Now, logger: logger}
}

// IngestArticle validates, embeds (title + abstract) and upserts an article.
func (s *Service) IngestArticle(ctx context.Context, in normalizer.Input) (article.Document, error) {
	draft, err := normalizer.FromArticle(in)
	if err != nil {
		s.record("article", err)
		return article.Document{}, err
	}
	doc, err := s.store(ctx, draft)
	s.record("article", err)
	return doc, err
}

// IngestUpload extracts text from the file, parses it heuristically and upserts it.
// Only the abstract is embedded.
func (s *Service) IngestUpload(ctx context.Context, filename string, data []byte) (article.Document, error) {
	text, err := s.extract(filename, data)
	if err != nil {
		s.record("upload", err)
		return article.Document{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	draft, err := normalizer.FromText(filename, text, s.now())
	if err != nil {
		s.record("upload", err)
		return article.Document{}, err
	}
	if draft.EmbeddingText == "" {
		s.logger.Warn("No abstract found in upload, indexing an empty embedding text",
			zap.String("filename", filename))
	}
	doc, err := s.store(ctx, draft)
	s.record("upload", err)
	return doc, err
}

func (s *Service) store(ctx context.Context, d normalizer.Draft) (article.Document, error) {
	doc, err := s.norm.ToDocument(ctx, d)
	if err != nil {
		return article.Document{}, err
	}
	if err := s.repo.Upsert(ctx, doc); err != nil {
		return article.Document{}, fmt.Errorf("upsert %s: %w", d.ID, err)
	}
	s.logger.Info("Article indexed",
		zap.String("id", doc.ID()),
		zap.String("title", doc.Article().Title()),
	)
	return doc, nil
}

func (s *Service) record(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IngestDocumentsTotal.WithLabelValues(source, status).Inc()
}

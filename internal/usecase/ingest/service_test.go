package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
)

type mockRepo struct {
	docs []article.Document
	err  error
}

func (m *mockRepo) Upsert(_ context.Context, doc article.Document) error {
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, doc)
	return nil
}

type mockEmbedder struct {
	texts []string
	err   error
}

func (m *mockEmbedder) Dimension() int { return 2 }

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, m.err
}

func plainText(_ string, data []byte) (string, error) { return string(data), nil }

func newTestService(repo *mockRepo, emb *mockEmbedder) *Service {
	s := New(repo, normalizer.New(emb), plainText, nil)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestIngestArticle(t *testing.T) {
	repo, emb := &mockRepo{}, &mockEmbedder{}
	svc := newTestService(repo, emb)

	doc, err := svc.IngestArticle(context.Background(), normalizer.Input{
		Title: "Graph Networks", URL: "https://e.org/g", Abstract: "We show.", Author: "Lee", PublishedDate: "2022-02-02",
	})
	if err != nil {
		t.Fatalf("IngestArticle: %v", err)
	}
	if doc.Article().Title() != "Graph Networks" {
		t.Errorf("unexpected title %q", doc.Article().Title())
	}
	if len(repo.docs) != 1 || emb.texts[0] != "Graph Networks We show." {
		t.Errorf("unexpected writes %d / text %v", len(repo.docs), emb.texts)
	}
}

func TestIngestArticle_Invalid(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{})
	_, err := svc.IngestArticle(context.Background(), normalizer.Input{URL: "u", PublishedDate: "2022-02-02"})
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if len(repo.docs) != 0 {
		t.Fatal("invalid article must not be written")
	}
}

func TestIngestArticle_ProviderError(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{err: domain.ErrProviderQuotaExceeded})
	_, err := svc.IngestArticle(context.Background(), normalizer.Input{Title: "t", URL: "u", PublishedDate: "2022-02-02"})
	if !errors.Is(err, domain.ErrProviderQuotaExceeded) {
		t.Fatalf("expected ErrProviderQuotaExceeded, got %v", err)
	}
	if len(repo.docs) != 0 {
		t.Fatal("nothing must be written when embedding fails")
	}
}

func TestIngestArticle_RepoError(t *testing.T) {
	svc := newTestService(&mockRepo{err: domain.ErrIndexUnavailable}, &mockEmbedder{})
	_, err := svc.IngestArticle(context.Background(), normalizer.Input{Title: "t", URL: "u", PublishedDate: "2022-02-02"})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestIngestUpload(t *testing.T) {
	repo, emb := &mockRepo{}, &mockEmbedder{}
	svc := newTestService(repo, emb)

	doc, err := svc.IngestUpload(context.Background(), "paper.txt",
		[]byte("Title: Cells\nAuthors: Kim\nAbstract: Cells divide.\nIntroduction\nbody"))
	if err != nil {
		t.Fatalf("IngestUpload: %v", err)
	}
	if emb.texts[0] != "Cells divide." {
		t.Errorf("upload must embed the abstract only, got %q", emb.texts[0])
	}
	if doc.Article().Metadata().PublishedDate() != "2024-06-01" {
		t.Errorf("unexpected date %q", doc.Article().Metadata().PublishedDate())
	}
	if doc.Article().URL() != "paper.txt" {
		t.Errorf("unexpected url %q", doc.Article().URL())
	}
}

func TestIngestUpload_ExtractError(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, normalizer.New(&mockEmbedder{}), func(string, []byte) (string, error) {
		return "", domain.ErrInvalidDocument
	}, nil)
	if _, err := svc.IngestUpload(context.Background(), "x.bin", []byte{0}); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

package article

import (
	"context"
	"testing"

	"github.com/kailas-cloud/scifinder/internal/db"
	domart "github.com/kailas-cloud/scifinder/internal/domain/article"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) []error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string, deleteDocs bool) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) []error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return make([]error, len(items))
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name, deleteDocs)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

type fakeIdentity struct {
	name string
	dim  int
}

func (f *fakeIdentity) Name() string   { return f.name }
func (f *fakeIdentity) Dimension() int { return f.dim }

func newTestRepo(t *testing.T) (*Repo, *mockStore, *fakeIdentity) {
	t.Helper()
	ms := &mockStore{}
	id := &fakeIdentity{name: "local-tfidf", dim: 3}
	return New(ms, id, testMapping(t), "scifinder:", 0), ms, id
}

func testDoc(t *testing.T, id string, vec []float32) domart.Document {
	t.Helper()
	meta, err := domart.NewMetadata("J. Smith", "2023-01-01", []string{"ml", "bio"})
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	a, err := domart.New("deep learning", "https://example.org/"+id, "abstract", meta)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc, err := domart.NewDocument(id, a, vec, "")
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func testMapping(t *testing.T) *Mapping {
	t.Helper()
	m, err := ParseMapping([]byte(`
vector: {algorithm: hnsw, distance: cosine, m: 16, ef_construction: 200}
fields:
  - {name: title, type: text}
  - {name: abstract, type: text}
  - {name: author, type: tag, separator: ";"}
  - {name: tags, type: tag}
  - {name: published_ts, type: numeric}
`))
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	return m
}

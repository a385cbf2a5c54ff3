package chi

import (
	"context"
	"testing"

	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/search/request"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
	healthuc "github.com/kailas-cloud/scifinder/internal/usecase/health"
)

type mockIngester struct {
	articleFn func(ctx context.Context, in normalizer.Input) (article.Document, error)
	uploadFn  func(ctx context.Context, filename string, data []byte) (article.Document, error)
}

func (m *mockIngester) IngestArticle(ctx context.Context, in normalizer.Input) (article.Document, error) {
	if m.articleFn != nil {
		return m.articleFn(ctx, in)
	}
	return article.Document{}, nil
}

func (m *mockIngester) IngestUpload(ctx context.Context, filename string, data []byte) (article.Document, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, filename, data)
	}
	return article.Document{}, nil
}

type mockSearcher struct {
	searchFn   func(ctx context.Context, req *request.Request) ([]result.Result, error)
	candidates int
}

func (m *mockSearcher) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return nil, nil
}

func (m *mockSearcher) NumCandidates() int {
	if m.candidates == 0 {
		return 100
	}
	return m.candidates
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestServer(ing *mockIngester, srch *mockSearcher, opts Options) *Server {
	if ing == nil {
		ing = &mockIngester{}
	}
	if srch == nil {
		srch = &mockSearcher{}
	}
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.ComponentRedis: healthuc.CheckOK},
	}}
	return NewServer(ing, srch, h, opts, nil)
}

func testDocument(t *testing.T, id, title string) article.Document {
	t.Helper()
	meta, err := article.NewMetadata("Jane Smith", "2023-05-01", []string{"ML", "medicine"})
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	a, err := article.New(title, "https://arxiv.org/abs/"+id, "An abstract.", meta)
	if err != nil {
		t.Fatalf("article.New: %v", err)
	}
	doc, err := article.NewDocument(id, a, []float32{1, 0, 0}, "")
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

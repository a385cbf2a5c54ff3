package fill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/scifinder/internal/dataset"
	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/batch"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
)

// --- Mocks ---

type mockIndex struct {
	recreateErr error
	recreated   int
	batches     [][]article.Document
	failIDs     map[string]bool
}

func (m *mockIndex) Recreate(context.Context) error {
	m.recreated++
	return m.recreateErr
}

func (m *mockIndex) BulkUpsert(_ context.Context, docs []article.Document) []batch.Result {
	cp := make([]article.Document, len(docs))
	copy(cp, docs)
	m.batches = append(m.batches, cp)

	out := make([]batch.Result, len(docs))
	for i, d := range docs {
		if m.failIDs[d.ID()] {
			out[i] = batch.NewError(d.ID(), domain.ErrIndexUnavailable)
			continue
		}
		out[i] = batch.NewOK(d.ID())
	}
	return out
}

func (m *mockIndex) written() int {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

type mockEmbedder struct {
	failOn string
}

func (m *mockEmbedder) Dimension() int { return 2 }

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return domain.EmbeddingResult{}, domain.ErrProviderUnavailable
	}
	return domain.EmbeddingResult{Embedding: []float32{0.6, 0.8}}, nil
}

type sliceReader struct {
	rows []dataset.Row
	err  error // returned after rows are exhausted, instead of io.EOF
	pos  int
}

func (s *sliceReader) Next() (dataset.Row, error) {
	if s.pos >= len(s.rows) {
		if s.err != nil {
			return dataset.Row{}, s.err
		}
		return dataset.Row{}, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceReader) Close() error { return nil }

func makeRows(n int) []dataset.Row {
	rows := make([]dataset.Row, n)
	for i := range rows {
		rows[i] = dataset.Row{
			ID:      fmt.Sprintf("id-%d", i),
			Title:   fmt.Sprintf("Title %d", i),
			Link:    fmt.Sprintf("https://e.org/%d", i),
			Date:    "2023-01-01",
			Summary: fmt.Sprintf("summary %d", i),
		}
	}
	return rows
}

func newTestPipeline(idx *mockIndex, emb *mockEmbedder) *Pipeline {
	return New(idx, normalizer.New(emb), DefaultBatchSize, nil)
}

// --- Tests ---

func TestPipeline_OneEmbedFailureInBatchOf50(t *testing.T) {
	idx := &mockIndex{}
	p := newTestPipeline(idx, &mockEmbedder{failOn: "summary 17"})

	rep, err := p.Run(context.Background(), &sliceReader{rows: makeRows(50)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if idx.written() != 49 || rep.Written != 49 {
		t.Errorf("expected 49 written, got store=%d report=%d", idx.written(), rep.Written)
	}
	if rep.Skipped != 1 {
		t.Errorf("expected exactly one skip, got %d", rep.Skipped)
	}
	if rep.Rows != 50 || rep.Batches != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
}

// Scenario D: an empty summary produces no document and the run continues.
func TestPipeline_EmptySummarySkipped(t *testing.T) {
	rows := makeRows(3)
	rows[1].Summary = ""
	idx := &mockIndex{}

	rep, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: rows})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if idx.written() != 2 || rep.Skipped != 1 {
		t.Fatalf("expected 2 written and 1 skipped, got %d / %+v", idx.written(), rep)
	}
	for _, d := range idx.batches[0] {
		if d.ID() == "id-1" {
			t.Fatal("row with empty summary must not be written")
		}
	}
}

func TestPipeline_BatchingAndFinalFlush(t *testing.T) {
	idx := &mockIndex{}
	rep, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: makeRows(120)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(idx.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(idx.batches))
	}
	sizes := []int{len(idx.batches[0]), len(idx.batches[1]), len(idx.batches[2])}
	if sizes[0] != 50 || sizes[1] != 50 || sizes[2] != 20 {
		t.Errorf("unexpected batch sizes %v", sizes)
	}
	if rep.Batches != 3 || rep.Written != 120 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestPipeline_WriteFailuresCounted(t *testing.T) {
	idx := &mockIndex{failIDs: map[string]bool{"id-3": true, "id-4": true}}
	rep, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: makeRows(10)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Written != 8 || rep.Failed != 2 {
		t.Errorf("expected 8 written, 2 failed; got %+v", rep)
	}
	if rep.Rows != rep.Written+rep.Failed+rep.Skipped {
		t.Errorf("report does not add up: %+v", rep)
	}
}

func TestPipeline_RecreateFailureIsFatal(t *testing.T) {
	idx := &mockIndex{recreateErr: domain.ErrIndexUnavailable}
	_, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: makeRows(5)})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if idx.written() != 0 {
		t.Fatal("nothing must be written when recreation fails")
	}
}

func TestPipeline_ReadErrorFlushesBuffered(t *testing.T) {
	idx := &mockIndex{}
	src := &sliceReader{rows: makeRows(7), err: errors.New("bare quote in field")}

	rep, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), src)
	if err == nil {
		t.Fatal("expected read error")
	}
	if rep.Written != 7 || idx.written() != 7 {
		t.Errorf("buffered rows must be flushed, got %+v", rep)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestPipeline(&mockIndex{}, &mockEmbedder{}).Run(ctx, &sliceReader{rows: makeRows(3)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipeline_InvalidRowSkipped(t *testing.T) {
	rows := makeRows(2)
	rows[0].Summary = strings.Repeat("x", article.MaxAbstractSize+1)
	rep, err := newTestPipeline(&mockIndex{}, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: rows})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Skipped != 1 || rep.Written != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestPipeline_RowWithoutLinkWritten(t *testing.T) {
	rows := makeRows(2)
	rows[0].Link = ""
	idx := &mockIndex{}
	rep, err := newTestPipeline(idx, &mockEmbedder{}).Run(context.Background(), &sliceReader{rows: rows})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Skipped != 0 || rep.Written != 2 {
		t.Errorf("unexpected report %+v", rep)
	}
}

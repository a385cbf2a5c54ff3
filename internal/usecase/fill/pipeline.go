// Package fill is the bulk loader: it rebuilds the index from a dataset in
// fixed-size batches, tolerating per-row and per-document failures.
package fill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/dataset"
	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/batch"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
)

// DefaultBatchSize bounds one bulk write.
const DefaultBatchSize = 50

// Index is the gateway the loader writes to.
type Index interface {
	Recreate(ctx context.Context) error
	BulkUpsert(ctx context.Context, docs []article.Document) []batch.Result
}

// Normalizer embeds drafts.
type Normalizer interface {
	ToDocument(ctx context.Context, d normalizer.Draft) (article.Document, error)
}

// Report summarizes one run. Rows = Skipped + Written + Failed once the run completes.
type Report struct {
	Rows    int
	Skipped int
	Written int
	Failed  int
	Batches int
}

// Pipeline runs a full reload. It is single-shot per index; concurrent runs
// against the same index are not supported.
type Pipeline struct {
	index     Index
	norm      Normalizer
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a pipeline. batchSize <= 0 uses DefaultBatchSize.
func New(index Index, norm Normalizer, batchSize int, logger *zap.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{index: index, norm: norm, batchSize: batchSize, now: time.Now, logger: logger}
}

// Run recreates the index and loads every row of src. Only index recreation,
// dataset read errors and cancellation stop the run; anything buffered is
// flushed before returning.
func (p *Pipeline) Run(ctx context.Context, src dataset.Reader) (Report, error) {
	var rep Report

	if err := p.index.Recreate(ctx); err != nil {
		return rep, fmt.Errorf("recreate index: %w", err)
	}
	p.logger.Info("Index recreated, loading dataset", zap.Int("batch_size", p.batchSize))

	now := p.now()
	buf := make([]article.Document, 0, p.batchSize)

	runErr := dataset.ForEach(src, func(i int, row dataset.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.Rows++

		draft, err := normalizer.FromRow(row, now)
		if err != nil {
			rep.Skipped++
			if errors.Is(err, normalizer.ErrEmptySummary) {
				metrics.IngestRowsTotal.WithLabelValues(metrics.RowSkippedEmpty).Inc()
				return nil
			}
			metrics.IngestRowsTotal.WithLabelValues(metrics.RowSkippedBad).Inc()
			p.logger.Warn("Skipping invalid row", zap.Int("row", i), zap.String("id", row.ID), zap.Error(err))
			return nil
		}

		doc, err := p.norm.ToDocument(ctx, draft)
		if err != nil {
			rep.Skipped++
			metrics.IngestRowsTotal.WithLabelValues(metrics.RowSkippedEmbed).Inc()
			p.logger.Error("Embedding failed, skipping row", zap.Int("row", i), zap.String("id", draft.ID), zap.Error(err))
			return nil
		}

		buf = append(buf, doc)
		if len(buf) >= p.batchSize {
			p.flush(ctx, buf, &rep)
			buf = buf[:0]
		}
		return nil
	})

	if len(buf) > 0 {
		p.flush(ctx, buf, &rep)
	}

	p.logger.Info("Dataset load finished",
		zap.Int("rows", rep.Rows),
		zap.Int("written", rep.Written),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("batches", rep.Batches),
	)
	if runErr != nil {
		return rep, fmt.Errorf("load dataset: %w", runErr)
	}
	return rep, nil
}

func (p *Pipeline) flush(ctx context.Context, docs []article.Document, rep *Report) {
	results := p.index.BulkUpsert(ctx, docs)
	ok, failed := batch.Tally(results)

	rep.Batches++
	rep.Written += ok
	rep.Failed += failed
	metrics.IngestBatchesTotal.Inc()
	metrics.IngestRowsTotal.WithLabelValues(metrics.RowIndexed).Add(float64(ok))
	if failed > 0 {
		metrics.IngestRowsTotal.WithLabelValues(metrics.RowWriteFailed).Add(float64(failed))
	}

	for _, r := range batch.Failed(results) {
		p.logger.Warn("Document write failed", zap.String("id", r.ID()), zap.Error(r.Err()))
	}
	p.logger.Debug("Batch flushed", zap.Int("size", len(docs)), zap.Int("ok", ok), zap.Int("failed", failed))
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Row outcomes for IngestRowsTotal.
const (
	RowIndexed      = "indexed"
	RowSkippedEmpty = "skipped_empty"
	RowSkippedEmbed = "skipped_embed"
	RowSkippedBad   = "skipped_invalid"
	RowWriteFailed  = "write_failed"
)

// Ingestion and retrieval Prometheus metrics.
var (
	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Dataset rows processed by the bulk loader, by outcome",
		},
		[]string{"outcome"},
	)

	IngestBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_batches_total",
			Help:      "Bulk upsert batches flushed",
		},
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Single-document ingestions, by source and status",
		},
		[]string{"source", "status"}, // source: article, upload
	)

	SearchDroppedHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_dropped_hits_total",
			Help:      "Search hits dropped as malformed index records",
		},
	)
)

var ingestOnce sync.Once

// RegisterIngestMetrics registers ingestion and retrieval metrics. Safe to call more than once.
func RegisterIngestMetrics() {
	ingestOnce.Do(func() {
		prometheus.MustRegister(
			IngestRowsTotal,
			IngestBatchesTotal,
			IngestDocumentsTotal,
			SearchDroppedHitsTotal,
		)
	})
}

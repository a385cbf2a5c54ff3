package search

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
	"github.com/kailas-cloud/scifinder/internal/metrics"
)

var requiredHitFields = []string{"title", "url", "abstract", "author", "published_date"}

// MapHits converts raw hits to results, keeping store order. A malformed hit
// is dropped with a warning; the rest of the response survives.
func MapHits(hits []result.Hit, logger *zap.Logger) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		r, err := MapHit(h)
		if err != nil {
			metrics.SearchDroppedHitsTotal.Inc()
			logger.Warn("Dropping malformed search hit", zap.String("id", h.ID), zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out
}

// MapHit converts a single hit. Missing required fields give ErrMalformedIndexRecord.
func MapHit(h result.Hit) (result.Result, error) {
	if h.ID == "" {
		return result.Result{}, fmt.Errorf("%w: empty id", domain.ErrMalformedIndexRecord)
	}
	for _, f := range requiredHitFields {
		if _, ok := h.Fields[f]; !ok {
			return result.Result{}, fmt.Errorf("%w: %s missing field %q", domain.ErrMalformedIndexRecord, h.ID, f)
		}
	}

	var tags []string
	if raw := h.Fields["tags"]; raw != "" {
		tags = strings.Split(raw, ",")
	}
	meta, err := article.NewMetadata(h.Fields["author"], h.Fields["published_date"], tags)
	if err != nil {
		return result.Result{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedIndexRecord, h.ID, err)
	}

	return result.New(h.ID, h.Score, h.Fields["title"], h.Fields["url"], h.Fields["abstract"], meta), nil
}

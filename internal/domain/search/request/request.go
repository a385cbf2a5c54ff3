package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/scifinder/internal/domain/article"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	// MaxTopK mirrors the canonical num_candidates so k never exceeds the candidate pool.
	MaxTopK = 100
)

// Params is the raw, caller-supplied search input. Empty strings mean "not set".
type Params struct {
	Query    string
	Author   string
	DateFrom string
	DateTo   string
	Tags     string
	TopK     int
}

// Request is a validated search request.
type Request struct {
	query    string
	author   *string
	dateFrom *string
	dateTo   *string
	tags     *string
	topK     int
}

// New validates and normalizes search parameters.
// top_k: 0 means DefaultTopK, negative is rejected, above maxTopK is clamped.
// The query itself is carried verbatim; rejecting blank queries is the caller's job.
func New(p Params, defaultTopK, maxTopK int) (Request, error) {
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}

	topK := p.TopK
	switch {
	case topK < 0:
		return Request{}, fmt.Errorf("top_k must be positive, got %d", topK)
	case topK == 0:
		topK = defaultTopK
	case topK > maxTopK:
		topK = maxTopK
	}

	r := Request{query: p.Query, topK: topK}
	r.author = optional(p.Author)
	r.tags = optional(p.Tags)

	var err error
	if r.dateFrom, err = optionalDate("date_from", p.DateFrom); err != nil {
		return Request{}, err
	}
	if r.dateTo, err = optionalDate("date_to", p.DateTo); err != nil {
		return Request{}, err
	}
	if r.dateFrom != nil && r.dateTo != nil && *r.dateFrom > *r.dateTo {
		return Request{}, fmt.Errorf("date_from %s is after date_to %s", *r.dateFrom, *r.dateTo)
	}

	return r, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func optionalDate(name, s string) (*string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := article.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	iso := t.Format(article.DateLayout)
	return &iso, nil
}

// Query returns the search query text, verbatim.
func (r *Request) Query() string { return r.query }

// Author returns the raw author filter, nil when absent.
func (r *Request) Author() *string { return r.author }

// DateFrom returns the inclusive lower date bound, nil when absent.
func (r *Request) DateFrom() *string { return r.dateFrom }

// DateTo returns the inclusive upper date bound, nil when absent.
func (r *Request) DateTo() *string { return r.dateTo }

// Tags returns the raw tag filter, nil when absent.
func (r *Request) Tags() *string { return r.tags }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

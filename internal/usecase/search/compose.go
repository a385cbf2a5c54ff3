package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/scifinder/internal/domain/search/filter"
	"github.com/kailas-cloud/scifinder/internal/domain/search/request"
)

// Domain field names addressed by filters.
const (
	FieldAuthor        = "author"
	FieldPublishedDate = "published_date"
	FieldTags          = "tags"
)

// Plan is what a search request turns into before anything is embedded.
type Plan struct {
	EmbeddingText string
	Filters       filter.Expression
	K             int
	NumCandidates int
}

// Compose is a pure transform of a request into a plan. Clauses are emitted in
// a fixed order (author, date range, tags) and combined with AND.
// A blank query is passed through untouched.
func Compose(req *request.Request, numCandidates int) (Plan, error) {
	var conds []filter.Condition

	if a := req.Author(); a != nil {
		c, err := filter.NewWildcard(FieldAuthor, "*"+normalize(*a)+"*")
		if err != nil {
			return Plan{}, fmt.Errorf("author filter: %w", err)
		}
		conds = append(conds, c)
	}

	if req.DateFrom() != nil || req.DateTo() != nil {
		rng, err := filter.NewDateRange(req.DateFrom(), req.DateTo())
		if err != nil {
			return Plan{}, fmt.Errorf("date filter: %w", err)
		}
		c, err := filter.NewRange(FieldPublishedDate, rng)
		if err != nil {
			return Plan{}, fmt.Errorf("date filter: %w", err)
		}
		conds = append(conds, c)
	}

	if t := req.Tags(); t != nil {
		c, err := filter.NewTerm(FieldTags, normalize(*t))
		if err != nil {
			return Plan{}, fmt.Errorf("tags filter: %w", err)
		}
		conds = append(conds, c)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return Plan{}, err
	}

	k := req.TopK()
	if numCandidates > 0 && k > numCandidates {
		k = numCandidates
	}
	return Plan{
		EmbeddingText: req.Query(),
		Filters:       expr,
		K:             k,
		NumCandidates: numCandidates,
	}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

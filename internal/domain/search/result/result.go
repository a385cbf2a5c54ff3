package result

import "github.com/kailas-cloud/scifinder/internal/domain/article"

// Result is a single search hit in the external contract. Built fresh per response.
type Result struct {
	id       string
	score    float64
	title    string
	url      string
	abstract string
	meta     article.Metadata
}

// New creates a search result.
func New(id string, score float64, title, url, abstract string, meta article.Metadata) Result {
	return Result{id: id, score: score, title: title, url: url, abstract: abstract, meta: meta}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the engine similarity. Only comparable within one query.
func (r *Result) Score() float64 { return r.score }

// Title returns the article title.
func (r *Result) Title() string { return r.title }

// URL returns the article link.
func (r *Result) URL() string { return r.url }

// Abstract returns the article abstract.
func (r *Result) Abstract() string { return r.abstract }

// Metadata returns the article metadata.
func (r *Result) Metadata() article.Metadata { return r.meta }

// Hit is a raw index hit in store order: document id, similarity and the returned fields.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]string
}

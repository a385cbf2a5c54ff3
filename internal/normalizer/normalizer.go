// Package normalizer turns the three ingestion inputs (API article, extracted
// raw text, dataset row) into drafts with a chosen embedding text, and drafts
// into indexable documents.
package normalizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/scifinder/internal/dataset"
	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/domain/article"
)

// Defaults applied to dataset rows.
const (
	DefaultTitle  = "untitled"
	DefaultAuthor = "Unknown"
)

// ErrEmptySummary marks a dataset row without a summary; such rows are skipped.
var ErrEmptySummary = fmt.Errorf("%w: empty summary", domain.ErrInvalidDocument)

// Input is the raw article payload accepted by the ingest API.
type Input struct {
	Title         string
	URL           string
	Abstract      string
	Author        string
	PublishedDate string
	Tags          []string
}

// Draft is a validated article with its id and the text that must be embedded.
type Draft struct {
	ID            string
	Article       article.Article
	EmbeddingText string
	FullText      string
}

// FromArticle validates an API article. Embedding text is title and abstract joined by one space.
func FromArticle(in Input) (Draft, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Draft{}, fmt.Errorf("%w: title is required", domain.ErrInvalidDocument)
	}
	meta, err := article.NewMetadata(in.Author, in.PublishedDate, in.Tags)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	a, err := article.New(in.Title, in.URL, in.Abstract, meta)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	key := a.URL()
	if key == "" {
		key = "title:" + strings.ToLower(strings.TrimSpace(in.Title))
	}
	return Draft{
		ID:            idFor(key),
		Article:       a,
		EmbeddingText: in.Title + " " + in.Abstract,
	}, nil
}

// FromText parses text extracted from an uploaded file. Only the abstract is
// embedded; the heuristically extracted title is too noisy. An empty abstract
// still yields a draft.
func FromText(filename, text string, now time.Time) (Draft, error) {
	if strings.TrimSpace(filename) == "" {
		return Draft{}, fmt.Errorf("%w: filename is required", domain.ErrInvalidDocument)
	}
	title, authors, abstract := parseSections(text)

	meta, err := article.NewMetadata(authors, now.UTC().Format(article.DateLayout), nil)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	a, err := article.New(title, filename, abstract, meta)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	return Draft{
		ID:            idFor(filename),
		Article:       a,
		EmbeddingText: abstract,
		FullText:      text,
	}, nil
}

// FromRow converts a dataset row. Rows without a summary return ErrEmptySummary;
// a missing link is stored as an empty url.
func FromRow(row dataset.Row, now time.Time) (Draft, error) {
	summary := strings.TrimSpace(row.Summary)
	if summary == "" {
		return Draft{}, ErrEmptySummary
	}

	title := strings.ToLower(strings.TrimSpace(row.Title))
	if title == "" {
		title = DefaultTitle
	}
	author := strings.TrimSpace(row.Authors)
	if author == "" {
		author = DefaultAuthor
	}

	meta, err := article.NewMetadata(author, ParseRowDate(row.Date, now), splitTopics(row.Topics))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	a, err := article.New(title, strings.TrimSpace(row.Link), summary, meta)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}

	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return Draft{
		ID:            id,
		Article:       a,
		EmbeddingText: title + ". " + summary,
		FullText:      row.Text,
	}, nil
}

// Normalizer embeds drafts with the active provider.
type Normalizer struct {
	embedder domain.Embedder
}

// New creates a Normalizer.
func New(embedder domain.Embedder) *Normalizer {
	return &Normalizer{embedder: embedder}
}

// ToDocument embeds the draft. The vector always has the provider's dimension.
func (n *Normalizer) ToDocument(ctx context.Context, d Draft) (article.Document, error) {
	res, err := n.embedder.Embed(ctx, d.EmbeddingText)
	if err != nil {
		return article.Document{}, fmt.Errorf("embed %s: %w", d.ID, err)
	}
	if err := domain.CheckDimension(res.Embedding, n.embedder.Dimension()); err != nil {
		return article.Document{}, err
	}
	doc, err := article.NewDocument(d.ID, d.Article, res.Embedding, d.FullText)
	if err != nil {
		return article.Document{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	return doc, nil
}

// idFor derives a stable id so re-ingesting the same url (or, without one, the
// same title) overwrites the previous record.
func idFor(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

func splitTopics(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, ";", ","), ",")
}

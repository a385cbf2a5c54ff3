package article

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for published_date.
const DateLayout = "2006-01-02"

// MaxAbstractSize bounds the abstract stored in the index.
const MaxAbstractSize = 64 << 10

// Metadata is the structured, filterable part of an article (immutable value object).
type Metadata struct {
	author        string
	publishedDate string
	publishedAt   time.Time
	tags          []string
}

// NewMetadata validates published_date as a calendar date and normalizes tags
// to a lowercase, de-duplicated, order-preserving set.
func NewMetadata(author, publishedDate string, tags []string) (Metadata, error) {
	at, err := ParseDate(publishedDate)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		author:        strings.TrimSpace(author),
		publishedDate: at.Format(DateLayout),
		publishedAt:   at,
		tags:          NormalizeTags(tags),
	}, nil
}

// ParseDate parses an ISO date. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("published_date %q is not a valid YYYY-MM-DD date", s)
	}
	return t, nil
}

// Author returns the free-text author string.
func (m Metadata) Author() string { return m.author }

// PublishedDate returns the ISO publication date.
func (m Metadata) PublishedDate() string { return m.publishedDate }

// PublishedAt returns the publication date as midnight UTC.
func (m Metadata) PublishedAt() time.Time { return m.publishedAt }

// Tags returns a copy of the normalized tags.
func (m Metadata) Tags() []string {
	if m.tags == nil {
		return nil
	}
	out := make([]string, len(m.tags))
	copy(out, m.tags)
	return out
}

// NormalizeTags trims and lowercases tags, dropping empties and duplicates.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Article is a submitted scientific article (immutable value object).
type Article struct {
	title    string
	url      string
	abstract string
	meta     Metadata
}

// New validates and creates an Article. Title, url and abstract may each be
// empty: dataset rows without a link are still indexed, and the raw-text path
// may find no title or abstract.
func New(title, url, abstract string, meta Metadata) (Article, error) {
	if len(abstract) > MaxAbstractSize {
		return Article{}, fmt.Errorf("abstract too large (max %d bytes)", MaxAbstractSize)
	}
	return Article{title: title, url: strings.TrimSpace(url), abstract: abstract, meta: meta}, nil
}

// Title returns the article title.
func (a Article) Title() string { return a.title }

// URL returns the article link.
func (a Article) URL() string { return a.url }

// Abstract returns the article abstract.
func (a Article) Abstract() string { return a.abstract }

// Metadata returns the article metadata.
func (a Article) Metadata() Metadata { return a.meta }

// Document is an Article ready for the index: an id, its embedding and optional full text.
type Document struct {
	id       string
	article  Article
	vector   []float32
	fullText string
}

// NewDocument creates an indexable document. Vector length is checked by the index gateway
// against the active provider.
func NewDocument(id string, a Article, vector []float32, fullText string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required")
	}
	return Document{id: id, article: a, vector: vector, fullText: fullText}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Article returns the source article.
func (d Document) Article() Article { return d.article }

// Vector returns the embedding vector.
func (d Document) Vector() []float32 { return d.vector }

// FullText returns the optional article body.
func (d Document) FullText() string { return d.fullText }

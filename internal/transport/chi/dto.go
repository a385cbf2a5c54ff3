package chi

import (
	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/search/request"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeInvalidDocument     = "invalid_document"
	codeUnauthorized        = "unauthorized"
	codeNotFound            = "not_found"
	codeMethodNotAllowed    = "method_not_allowed"
	codePayloadTooLarge     = "payload_too_large"
	codeQuotaExceeded       = "quota_exceeded"
	codeProviderUnavailable = "provider_unavailable"
	codeIndexUnavailable    = "index_unavailable"
	codeTimeout             = "timeout"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type metadataDTO struct {
	Author        string   `json:"author"`
	PublishedDate string   `json:"published_date"`
	Tags          []string `json:"tags"`
}

type articleRequest struct {
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	Abstract string      `json:"abstract"`
	Metadata metadataDTO `json:"metadata"`
}

type ingestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// searchRequest mirrors SearchRequest; pointers distinguish "absent" from "empty".
type searchRequest struct {
	Query        string  `json:"query"`
	AuthorFilter *string `json:"author_filter"`
	DateFrom     *string `json:"date_from"`
	DateTo       *string `json:"date_to"`
	TagsFilter   *string `json:"tags_filter"`
	TopK         *int    `json:"top_k"`
}

type searchResultDTO struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	URL             string      `json:"url"`
	Abstract        string      `json:"abstract"`
	SimilarityScore float64     `json:"similarity_score"`
	Metadata        metadataDTO `json:"metadata"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Provider string            `json:"provider,omitempty"`
	Version  string            `json:"version"`
	Commit   string            `json:"commit"`
	Checks   map[string]string `json:"checks"`
}

func (a *articleRequest) toInput() normalizer.Input {
	return normalizer.Input{
		Title:         a.Title,
		URL:           a.URL,
		Abstract:      a.Abstract,
		Author:        a.Metadata.Author,
		PublishedDate: a.Metadata.PublishedDate,
		Tags:          a.Metadata.Tags,
	}
}

func (s *searchRequest) toParams() request.Params {
	p := request.Params{
		Query:    s.Query,
		Author:   deref(s.AuthorFilter),
		DateFrom: deref(s.DateFrom),
		DateTo:   deref(s.DateTo),
		Tags:     deref(s.TagsFilter),
	}
	if s.TopK != nil {
		p.TopK = *s.TopK
	}
	return p
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func metadataToDTO(m article.Metadata) metadataDTO {
	tags := m.Tags()
	if tags == nil {
		tags = []string{}
	}
	return metadataDTO{
		Author:        m.Author(),
		PublishedDate: m.PublishedDate(),
		Tags:          tags,
	}
}

func resultsToDTO(rs []result.Result) []searchResultDTO {
	out := make([]searchResultDTO, len(rs))
	for i := range rs {
		r := &rs[i]
		out[i] = searchResultDTO{
			ID:              r.ID(),
			Title:           r.Title(),
			URL:             r.URL(),
			Abstract:        r.Abstract(),
			SimilarityScore: r.Score(),
			Metadata:        metadataToDTO(r.Metadata()),
		}
	}
	return out
}

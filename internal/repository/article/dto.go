package article

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/scifinder/internal/db"
	domart "github.com/kailas-cloud/scifinder/internal/domain/article"
)

// Hash field names.
const (
	fieldTitle         = "title"
	fieldURL           = "url"
	fieldAbstract      = "abstract"
	fieldFullText      = "full_text"
	fieldAuthor        = "author"
	fieldPublishedDate = "published_date"
	fieldPublishedTS   = "published_ts"
	fieldTags          = "tags"
	fieldVector        = db.DefaultVectorField
)

// returnFields excludes the vector and the full text from search responses.
var returnFields = []string{
	fieldTitle, fieldURL, fieldAbstract, fieldAuthor, fieldPublishedDate, fieldTags,
}

// TagSeparator joins tags into one TAG field value.
const TagSeparator = ","

func toHash(doc *domart.Document) map[string]string {
	a := doc.Article()
	meta := a.Metadata()
	m := map[string]string{
		fieldTitle:         a.Title(),
		fieldURL:           a.URL(),
		fieldAbstract:      a.Abstract(),
		fieldAuthor:        meta.Author(),
		fieldPublishedDate: meta.PublishedDate(),
		fieldPublishedTS:   strconv.FormatInt(meta.PublishedAt().Unix(), 10),
		fieldTags:          strings.Join(meta.Tags(), TagSeparator),
		fieldVector:        string(db.EncodeVector(doc.Vector())),
	}
	if doc.FullText() != "" {
		m[fieldFullText] = doc.FullText()
	}
	return m
}

// storeField maps a domain filter field onto the hash field that is indexed for it.
func storeField(domainField string) string {
	if domainField == fieldPublishedDate {
		return fieldPublishedTS
	}
	return domainField
}

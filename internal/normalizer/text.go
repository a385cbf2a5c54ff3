package normalizer

import (
	"strings"
	"time"

	"github.com/kailas-cloud/scifinder/internal/domain/article"
)

var abstractTerminators = []string{"introduction", "1.", "i."}

// parseSections scans extracted text line by line. A line starting with
// "title", "authors" or "abstract" (case-insensitive) opens that field; the
// value is whatever follows the first colon. Without a colon the label itself
// is cut off along with separating punctuation, so "Abstract." opens an empty
// abstract and "Title Deep Nets" gives "Deep Nets". Abstract capture runs over
// the following non-empty lines until a terminator line or end of input.
func parseSections(text string) (title, authors, abstract string) {
	var abs []string
	capturing := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)

		if capturing {
			if hasAnyPrefix(lower, abstractTerminators) {
				capturing = false
				continue
			}
			if line != "" {
				abs = append(abs, line)
			}
			continue
		}

		switch {
		case strings.HasPrefix(lower, "title"):
			title = labelValue(line, "title")
		case strings.HasPrefix(lower, "authors"):
			authors = labelValue(line, "authors")
		case strings.HasPrefix(lower, "abstract"):
			capturing = true
			abs = abs[:0]
			if v := labelValue(line, "abstract"); v != "" {
				abs = append(abs, v)
			}
		}
	}

	return collapse(title), collapse(authors), collapse(strings.Join(abs, " "))
}

// labelValue returns the text after the first colon, or after the label when
// the line has none. label is ASCII and already matched case-insensitively.
func labelValue(line, label string) string {
	if _, v, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimLeft(line[len(label):], " \t.-")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// collapse folds newlines and runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// rowDateLayouts are tried in order when a dataset date is not plain ISO.
var rowDateLayouts = []string{
	article.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2006",
}

// ParseRowDate normalizes a dataset date to YYYY-MM-DD, falling back to now's date.
func ParseRowDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	for _, layout := range rowDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(article.DateLayout)
		}
	}
	return now.UTC().Format(article.DateLayout)
}

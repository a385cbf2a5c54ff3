// Package extract pulls plain text out of uploaded files, line structure preserved.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/scifinder/internal/domain"
)

// ErrUnsupportedFormat is returned for binary files that are not PDF.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", domain.ErrInvalidDocument)

var pdfMagic = []byte("%PDF-")

// Text returns the text of a PDF or plain-text upload.
func Text(filename string, data []byte) (string, error) {
	if bytes.HasPrefix(data, pdfMagic) || strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return PDF(data)
	}
	if !utf8.Valid(data) {
		return "", ErrUnsupportedFormat
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

// PDF extracts text page by page, one output line per text row.
func PDF(data []byte) (text string, err error) {
	// ledongthuc/pdf паникует на битых xref-таблицах
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: corrupt pdf: %v", domain.ErrInvalidDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", domain.ErrInvalidDocument, err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", domain.ErrInvalidDocument, i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CSVReader reads a dataset with a header row. Column order is free; unknown columns are ignored.
type CSVReader struct {
	f   io.Closer
	r   *csv.Reader
	col map[string]int
}

// OpenCSV opens a CSV dataset and reads its header.
func OpenCSV(path string) (*CSVReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	r, err := NewCSVReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

// NewCSVReader reads the header from src.
func NewCSVReader(src io.Reader) (*CSVReader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["summary"]; !ok {
		return nil, fmt.Errorf("dataset header has no %q column", "summary")
	}
	return &CSVReader{r: r, col: col}, nil
}

// Next returns the next row or io.EOF.
func (c *CSVReader) Next() (Row, error) {
	rec, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("read csv: %w", err)
	}
	get := func(name string) string {
		if i, ok := c.col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	return Row{
		ID:      get("id"),
		Title:   get("title"),
		Authors: get("authors"),
		Date:    get("date"),
		Topics:  get("topics"),
		Text:    get("text"),
		Link:    get("link"),
		Summary: get("summary"),
	}, nil
}

// Close closes the underlying file, if any.
func (c *CSVReader) Close() error {
	if c.f == nil {
		return nil
	}
	return c.f.Close()
}

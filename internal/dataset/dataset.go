package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for dataset files that are neither CSV nor Parquet.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Reader yields rows until io.EOF.
type Reader interface {
	Next() (Row, error)
	Close() error
}

// Open picks a reader by file extension.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return OpenCSV(path)
	case ".parquet", ".pq":
		return OpenParquet(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ForEach calls fn for every row. Iteration stops at the first error from the reader or fn.
func ForEach(r Reader, fn func(i int, row Row) error) error {
	for i := 0; ; i++ {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := fn(i, row); err != nil {
			return err
		}
	}
}

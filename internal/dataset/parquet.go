package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

const parquetBatch = 64

// ParquetReader reads rows from a Parquet dataset in small batches.
type ParquetReader struct {
	f    *os.File
	r    *parquet.GenericReader[Row]
	buf  []Row
	pos  int
	n    int
	done bool
}

// OpenParquet opens a Parquet dataset. Columns are matched by name.
func OpenParquet(path string) (*ParquetReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	return &ParquetReader{
		f:   f,
		r:   parquet.NewGenericReader[Row](f),
		buf: make([]Row, parquetBatch),
	}, nil
}

// Next returns the next row or io.EOF.
func (p *ParquetReader) Next() (Row, error) {
	for p.pos >= p.n {
		if p.done {
			return Row{}, io.EOF
		}
		n, err := p.r.Read(p.buf)
		p.pos, p.n = 0, n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Row{}, fmt.Errorf("read parquet: %w", err)
			}
			p.done = true
		}
	}
	row := p.buf[p.pos]
	p.pos++
	return row, nil
}

// Close releases the reader and the file.
func (p *ParquetReader) Close() error {
	rerr := p.r.Close()
	ferr := p.f.Close()
	return errors.Join(rerr, ferr)
}

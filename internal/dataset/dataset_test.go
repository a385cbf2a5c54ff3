package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

const sampleCSV = `id,title,authors,date,topics,text,link,summary
1,Deep Learning,J. Smith,2023-01-05,"ml;ai",body one,https://e.org/1,A summary.
2,Empty,,2023-02-01,,body two,https://e.org/2,
`

func collect(t *testing.T, r Reader) []Row {
	t.Helper()
	var rows []Row
	if err := ForEach(r, func(_ int, row Row) error {
		rows = append(rows, row)
		return nil
	}); err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	return rows
}

func TestCSVReader(t *testing.T) {
	r, err := NewCSVReader(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	rows := collect(t, r)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Deep Learning" || rows[0].Topics != "ml;ai" || rows[0].Summary != "A summary." {
		t.Errorf("unexpected row %+v", rows[0])
	}
	if rows[1].Summary != "" {
		t.Errorf("expected empty summary, got %q", rows[1].Summary)
	}
}

func TestCSVReader_ColumnOrderAndShortRecords(t *testing.T) {
	r, err := NewCSVReader(strings.NewReader("\ufeffSummary,Link\ns1,l1\ns2\n"))
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	rows := collect(t, r)
	if rows[0].Summary != "s1" || rows[0].Link != "l1" || rows[1].Link != "" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestCSVReader_BadHeader(t *testing.T) {
	if _, err := NewCSVReader(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
	if _, err := NewCSVReader(strings.NewReader("id,title\n1,x\n")); err == nil {
		t.Error("expected error for missing summary column")
	}
}

func TestOpen_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if rows := collect(t, r); len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestOpen_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := make([]Row, 150)
	for i := range want {
		want[i] = Row{ID: string(rune('a' + i%26)), Title: "t", Link: "l", Summary: "s"}
	}
	w := parquet.NewGenericWriter[Row](f)
	if _, err := w.Write(want); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got := collect(t, r)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	if got[27].ID != "b" || got[149].Summary != "s" {
		t.Errorf("unexpected rows %+v / %+v", got[27], got[149])
	}
}

func TestOpen_Unsupported(t *testing.T) {
	if _, err := Open("data.xlsx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestForEach_StopsOnCallbackError(t *testing.T) {
	r, _ := NewCSVReader(strings.NewReader(sampleCSV))
	boom := errors.New("boom")
	calls := 0
	err := ForEach(r, func(int, Row) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected one call and boom, got %d / %v", calls, err)
	}
	if _, err := r.Next(); err == io.EOF {
		t.Fatal("reader should still have rows left")
	}
}

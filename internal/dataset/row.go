// Package dataset reads tabular article datasets (CSV or Parquet) row by row.
package dataset

// Row is one dataset record. Only the columns consumed by ingestion are kept.
type Row struct {
	ID      string `parquet:"id,optional"`
	Title   string `parquet:"title,optional"`
	Authors string `parquet:"authors,optional"`
	Date    string `parquet:"date,optional"`
	Topics  string `parquet:"topics,optional"`
	Text    string `parquet:"text,optional"`
	Link    string `parquet:"link,optional"`
	Summary string `parquet:"summary,optional"`
}

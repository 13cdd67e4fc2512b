package sink

import (
	"context"
	"encoding/csv"
	"os"

	"trending_etl/internal/model"
)

// CSVWriter writes one <table>.csv per table with a header row. Null cells
// are written empty.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

func (w *CSVWriter) Name() string { return "csv" }

func (w *CSVWriter) Write(ctx context.Context, tables []model.Table) ([]Output, error) {
	return writeStaged(ctx, w.dir, ".csv", tables, writeCSV)
}

func writeCSV(path string, t model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header()); err != nil {
		f.Close()
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			rec[i] = ""
			if c.Valid {
				rec[i] = c.String
			}
		}
		if err := cw.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

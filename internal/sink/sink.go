// Package sink persists rendered star-schema tables: flat files in an output
// directory, an optional SQLite database, and an optional S3 publish of the
// finished files.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"trending_etl/internal/model"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Output describes one finished file.
type Output struct {
	Table string
	Path  string
	Rows  int
}

type Sink interface {
	Name() string
	Write(ctx context.Context, tables []model.Table) ([]Output, error)
}

// New returns the file sink for format, writing into dir.
func New(format, dir string) (Sink, error) {
	switch format {
	case "csv":
		return NewCSVWriter(dir), nil
	case "parquet":
		return NewParquetWriter(dir), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

type tableWriter func(path string, t model.Table) error

// writeStaged writes every table into a staging directory inside dir and
// only moves them into place once all of them succeeded. A failed run
// leaves the previous outputs untouched.
func writeStaged(ctx context.Context, dir, ext string, tables []model.Table, write tableWriter) ([]Output, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := write(filepath.Join(staging, t.Name+ext), t); err != nil {
			return nil, fmt.Errorf("write %s%s: %w", t.Name, ext, err)
		}
	}

	out := make([]Output, 0, len(tables))
	for _, t := range tables {
		final := filepath.Join(dir, t.Name+ext)
		if err := os.Rename(filepath.Join(staging, t.Name+ext), final); err != nil {
			return out, fmt.Errorf("move %s into place: %w", final, err)
		}
		out = append(out, Output{Table: t.Name, Path: final, Rows: len(t.Rows)})
	}
	return out, nil
}

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"trending_etl/internal/model"
)

var sqliteTypes = map[model.Kind]string{
	model.KindString:    "TEXT",
	model.KindInt:       "INTEGER",
	model.KindBool:      "INTEGER",
	model.KindTimestamp: "TEXT",
}

// SQLiteWriter loads the whole star schema into a single database file,
// replacing it on every run.
type SQLiteWriter struct {
	path string
}

func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{path: path}
}

func (w *SQLiteWriter) Name() string { return "sqlite" }

// Write builds the database next to its final path and renames it into
// place after the transaction commits.
func (w *SQLiteWriter) Write(ctx context.Context, tables []model.Table) ([]Output, error) {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return nil, err
	}
	tmp := w.path + ".tmp"
	_ = os.Remove(tmp)
	if err := writeSQLite(ctx, tmp, tables); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return nil, err
	}

	out := make([]Output, 0, len(tables))
	for _, t := range tables {
		out = append(out, Output{Table: t.Name, Path: w.path, Rows: len(t.Rows)})
	}
	return out, nil
}

func writeSQLite(ctx context.Context, path string, tables []model.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := createTable(ctx, tx, t); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
		if err := insertRows(ctx, tx, t); err != nil {
			return fmt.Errorf("insert %s: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

func createTable(ctx context.Context, tx *sql.Tx, t model.Table) error {
	var defs []string
	for _, c := range t.Columns {
		defs = append(defs, fmt.Sprintf("%q %s", c.Name, sqliteTypes[c.Kind]))
	}
	if len(t.Key) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoteAll(t.Key), ",")+")")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.Name)); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, t.Name, strings.Join(defs, ",")))
	return err
}

func insertRows(ctx context.Context, tx *sql.Tx, t model.Table) error {
	ph := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		t.Name, strings.Join(quoteAll(t.Header()), ","), ph))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			args[j] = sqliteValue(row[j], col.Kind)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func sqliteValue(c model.Cell, kind model.Kind) any {
	if !c.Valid {
		return nil
	}
	switch kind {
	case model.KindInt:
		if n, err := strconv.ParseInt(c.String, 10, 64); err == nil {
			return n
		}
	case model.KindBool:
		if c.String == "True" {
			return 1
		}
		return 0
	}
	return c.String
}

// Package quality verifies the output contract of the star schema: every
// table has a non-null unique primary key and no fully duplicate rows.
package quality

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"trending_etl/internal/model"
)

// Result is the outcome of both checks for one table.
type Result struct {
	Table        string
	Missing      bool
	KeyErr       error
	DuplicateErr error
}

func (r Result) Passed() int {
	if r.Missing {
		return 0
	}
	n := 0
	if r.KeyErr == nil {
		n++
	}
	if r.DuplicateErr == nil {
		n++
	}
	return n
}

func (r Result) Failed() int {
	if r.Missing {
		return 0
	}
	return 2 - r.Passed()
}

// Check runs both checks against t's declared key.
func Check(t model.Table) Result {
	return Result{
		Table:        t.Name,
		KeyErr:       CheckPrimaryKey(t, t.Key),
		DuplicateErr: CheckDuplicates(t),
	}
}

// CheckPrimaryKey requires every key column to exist and be non-null, and
// the key tuple to be unique.
func CheckPrimaryKey(t model.Table, key []string) error {
	if len(key) == 0 {
		return fmt.Errorf("%s: no primary key declared", t.Name)
	}
	idx := make([]int, len(key))
	for i, col := range key {
		idx[i] = t.ColumnIndex(col)
		if idx[i] < 0 {
			return fmt.Errorf("%s: key column %q not found", t.Name, col)
		}
	}
	seen := make(map[string]int, len(t.Rows))
	for r, row := range t.Rows {
		parts := make([]string, len(idx))
		for i, c := range idx {
			if !row[c].Valid {
				return fmt.Errorf("%s: row %d has null key column %q", t.Name, r, key[i])
			}
			parts[i] = row[c].String
		}
		k := strings.Join(parts, "\x00")
		if first, dup := seen[k]; dup {
			return fmt.Errorf("%s: rows %d and %d share key %v", t.Name, first, r, parts)
		}
		seen[k] = r
	}
	return nil
}

// CheckDuplicates rejects two rows identical across every column.
func CheckDuplicates(t model.Table) error {
	seen := make(map[string]int, len(t.Rows))
	for r, row := range t.Rows {
		var b strings.Builder
		for _, c := range row {
			if c.Valid {
				b.WriteByte(1)
				b.WriteString(c.String)
			}
			b.WriteByte(0)
		}
		k := b.String()
		if first, dup := seen[k]; dup {
			return fmt.Errorf("%s: rows %d and %d are identical", t.Name, first, r)
		}
		seen[k] = r
	}
	return nil
}

// LoadCSV reads a written table back. Empty cells are null.
func LoadCSV(path, name string) (model.Table, error) {
	t := model.Table{Name: name, Key: model.PrimaryKeys[name]}
	f, err := os.Open(path)
	if err != nil {
		return t, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return t, fmt.Errorf("read header of %s: %w", path, err)
	}
	for _, h := range header {
		t.Columns = append(t.Columns, model.Column{Name: h})
	}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t, fmt.Errorf("read %s: %w", path, err)
		}
		row := make([]model.Cell, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = model.Str(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// CheckDir checks every known table written as CSV under dir. Tables that
// are absent are reported as Missing rather than failing.
func CheckDir(dir string) ([]Result, error) {
	var out []Result
	for _, name := range model.TableOrder {
		path := filepath.Join(dir, name+".csv")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			out = append(out, Result{Table: name, Missing: true})
			continue
		}
		t, err := LoadCSV(path, name)
		if err != nil {
			return nil, err
		}
		out = append(out, Check(t))
	}
	return out, nil
}

// Package ingest loads the raw per-country video extracts and category
// catalogs into unified in-memory tables.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrNoInputFiles is returned when a raw root holds no matching files.
var ErrNoInputFiles = errors.New("no input files found")

// listFiles walks root recursively and returns matching files in lexical
// order. The order fixes which row wins first-occurrence deduplication.
func listFiles(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files under %s", ErrNoInputFiles, ext, root)
	}
	return files, nil
}

// CountryCode derives the two-letter country code from a file name.
func CountryCode(path string) (string, error) {
	name := filepath.Base(path)
	if len(name) < 2 {
		return "", fmt.Errorf("file name %q too short for a country code", name)
	}
	return strings.ToUpper(name[:2]), nil
}

package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"trending_etl/internal/keygen"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/model"
)

const kindCategory = "category"

// Malformed catalog errors.
var (
	ErrNoCatalogItems    = errors.New("catalog has no items array")
	ErrMissingCategoryID = errors.New("category item has no id")
)

// catalog mirrors the parts of a videoCategories list response we keep.
type catalog struct {
	Items []struct {
		ID      catalogID `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Assignable *bool  `json:"assignable"`
		} `json:"snippet"`
	} `json:"items"`
}

// catalogID accepts ids encoded either as JSON strings or numbers.
type catalogID string

func (c *catalogID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = catalogID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = catalogID(n.String())
	return nil
}

// CategoryResult is the unified category table plus counters.
type CategoryResult struct {
	Categories []model.Category
	Files      int
	RowsRead   int
}

// CategoryIngestor builds the category dimension from every JSON catalog
// under a root.
type CategoryIngestor struct {
	log     *logger.Logger
	metrics *metrics.Metrics
	workers int
}

func NewCategoryIngestor(log *logger.Logger, m *metrics.Metrics, workers int) *CategoryIngestor {
	if workers < 1 {
		workers = 1
	}
	return &CategoryIngestor{log: log, metrics: m, workers: workers}
}

// Ingest parses every catalog and deduplicates by category_id, keeping the
// first occurrence in file order. Malformed JSON aborts the run.
func (ci *CategoryIngestor) Ingest(ctx context.Context, root string) (*CategoryResult, error) {
	files, err := listFiles(root, ".json")
	if err != nil {
		return nil, err
	}
	ci.log.Info("found category files", "root", root, "count", len(files))

	parsed := make([][]model.Category, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ci.workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cats, err := ci.ingestFile(path)
			if err != nil {
				return err
			}
			parsed[i] = cats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &CategoryResult{Files: len(files)}
	seen := make(map[string]struct{})
	for _, cats := range parsed {
		out.RowsRead += len(cats)
		for _, c := range cats {
			if _, dup := seen[c.CategoryID]; dup {
				continue
			}
			seen[c.CategoryID] = struct{}{}
			out.Categories = append(out.Categories, c)
		}
	}
	return out, nil
}

func (ci *CategoryIngestor) ingestFile(path string) ([]model.Category, error) {
	country, err := CountryCode(path)
	if err != nil {
		return nil, err
	}
	ci.log.Info("processing file", "path", path, "country", country)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc catalog
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Items == nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNoCatalogItems)
	}

	cats := make([]model.Category, 0, len(doc.Items))
	for i, item := range doc.Items {
		if strings.TrimSpace(string(item.ID)) == "" {
			return nil, fmt.Errorf("parse %s: item %d: %w", path, i, ErrMissingCategoryID)
		}
		c := model.Category{
			RawID:       string(item.ID),
			Name:        item.Snippet.Title,
			CountryCode: country,
			CategoryID:  keygen.CategoryID(string(item.ID), country),
		}
		if item.Snippet.Assignable != nil {
			c.Assignable = sql.NullBool{Bool: *item.Snippet.Assignable, Valid: true}
		}
		cats = append(cats, c)
	}

	ci.metrics.FilesIngested.WithLabelValues(kindCategory).Inc()
	ci.metrics.RowsRead.WithLabelValues(kindCategory).Add(float64(len(cats)))
	return cats, nil
}

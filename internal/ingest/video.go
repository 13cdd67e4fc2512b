package ingest

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"trending_etl/internal/keygen"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/model"
	"trending_etl/internal/schema"
)

// Cleaning sentinels found in the raw extracts.
const corruptedIDSentinel = "#NAME?"

var noTagsSentinels = map[string]bool{
	"[None]": true,
	"[none]": true,
}

const kindVideo = "video"

// VideoResult is the unified video table plus ingestion counters.
type VideoResult struct {
	Videos      []model.Video
	Files       int
	RowsRead    int
	RowsDropped int
	BytesRead   int64
}

type fileResult struct {
	videos     []model.Video
	rowsRead   int
	missingKey int
	duplicates int
	bytes      int64
}

// VideoIngestor builds the unified video table from every CSV under a root.
type VideoIngestor struct {
	log     *logger.Logger
	metrics *metrics.Metrics
	workers int
}

func NewVideoIngestor(log *logger.Logger, m *metrics.Metrics, workers int) *VideoIngestor {
	if workers < 1 {
		workers = 1
	}
	return &VideoIngestor{log: log, metrics: m, workers: workers}
}

// Ingest loads every video file under root. Any file failing to reconcile
// aborts the whole run. Rows are concatenated in file order.
func (vi *VideoIngestor) Ingest(ctx context.Context, root string) (*VideoResult, error) {
	files, err := listFiles(root, ".csv")
	if err != nil {
		return nil, err
	}
	vi.log.Info("found video files", "root", root, "count", len(files))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vi.workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := vi.ingestFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &VideoResult{Files: len(files)}
	total := 0
	for _, r := range results {
		total += len(r.videos)
	}
	out.Videos = make([]model.Video, 0, total)
	for _, r := range results {
		out.Videos = append(out.Videos, r.videos...)
		out.RowsRead += r.rowsRead
		out.RowsDropped += r.missingKey + r.duplicates
		out.BytesRead += r.bytes
	}
	return out, nil
}

func (vi *VideoIngestor) ingestFile(path string) (fileResult, error) {
	var res fileResult

	country, err := CountryCode(path)
	if err != nil {
		return res, err
	}
	gen := schema.Detect(path)
	log := vi.log.With("path", path, "generation", gen.String(), "country", country)
	log.Info("processing file")

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil {
		res.bytes = st.Size()
	}

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, fmt.Errorf("%s: empty file", path)
		}
		return res, fmt.Errorf("read header of %s: %w", path, err)
	}
	ix, err := gen.Reconcile(path, header)
	if err != nil {
		return res, err
	}

	seen := make(map[model.Video]struct{})
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read %s: %w", path, err)
		}
		res.rowsRead++

		v, ok, err := toVideo(ix, gen, record, country)
		if err != nil {
			return res, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if !ok {
			res.missingKey++
			continue
		}
		if _, dup := seen[v]; dup {
			res.duplicates++
			continue
		}
		seen[v] = struct{}{}
		res.videos = append(res.videos, v)
	}

	vi.metrics.FilesIngested.WithLabelValues(kindVideo).Inc()
	vi.metrics.RowsRead.WithLabelValues(kindVideo).Add(float64(res.rowsRead))
	vi.metrics.RowsDropped.WithLabelValues(metrics.ReasonMissingKey).Add(float64(res.missingKey))
	vi.metrics.RowsDropped.WithLabelValues(metrics.ReasonDuplicate).Add(float64(res.duplicates))
	log.Info("ingested file", "rows_read", res.rowsRead, "rows_kept", len(res.videos),
		"missing_key", res.missingKey, "duplicates", res.duplicates)
	return res, nil
}

// toVideo reconciles one raw record. ok is false when the row cannot be
// keyed (no channel title or no usable natural id).
func toVideo(ix schema.Index, gen schema.Generation, record []string, country string) (model.Video, bool, error) {
	var v model.Video

	v.NaturalID = ix.Get(record, schema.ColVideoID)
	v.ChannelTitle = ix.Get(record, schema.ColChannelTitle)
	if v.NaturalID == "" || v.NaturalID == corruptedIDSentinel || v.ChannelTitle == "" {
		return v, false, nil
	}

	var err error
	if v.PublishedAt, err = schema.ParseTimestamp(ix.Get(record, schema.ColPublishedAt)); err != nil {
		return v, false, fmt.Errorf("publishedAt: %w", err)
	}
	if v.TrendingDate, err = gen.ParseTrendingDate(ix.Get(record, schema.ColTrendingDate)); err != nil {
		return v, false, fmt.Errorf("trending_date: %w", err)
	}

	v.Title = ix.Get(record, schema.ColTitle)
	v.RawCategoryID = strings.TrimSpace(ix.Get(record, schema.ColCategoryID))
	v.ThumbnailLink = ix.Get(record, schema.ColThumbnailLink)
	v.Description = nullableString(ix.Get(record, schema.ColDescription))
	v.CountryCode = country

	if tags := ix.Get(record, schema.ColTags); tags != "" && !noTagsSentinels[tags] {
		v.Tags = sql.NullString{String: tags, Valid: true}
	}

	counters := []struct {
		col string
		dst *sql.NullInt64
	}{
		{schema.ColViewCount, &v.ViewCount},
		{schema.ColLikes, &v.Likes},
		{schema.ColDislikes, &v.Dislikes},
		{schema.ColCommentCount, &v.CommentCount},
	}
	for _, c := range counters {
		if *c.dst, err = parseCount(ix.Get(record, c.col)); err != nil {
			return v, false, fmt.Errorf("%s: %w", c.col, err)
		}
	}
	if v.CommentsDisabled, err = parseFlag(ix.Get(record, schema.ColCommentsDisabled)); err != nil {
		return v, false, fmt.Errorf("%s: %w", schema.ColCommentsDisabled, err)
	}
	if v.RatingsDisabled, err = parseFlag(ix.Get(record, schema.ColRatingsDisabled)); err != nil {
		return v, false, fmt.Errorf("%s: %w", schema.ColRatingsDisabled, err)
	}

	deriveKeys(&v)
	return v, true, nil
}

// nullTagsKeyPart stands in for null tags inside video_id.
const nullTagsKeyPart = ""

// deriveKeys fills the surrogate keys.
func deriveKeys(v *model.Video) {
	tags := nullTagsKeyPart
	if v.Tags.Valid {
		tags = v.Tags.String
	}
	v.ChannelID = keygen.ChannelID(v.ChannelTitle)
	v.VideoID = keygen.Join(v.NaturalID, v.ChannelID, v.Title, tags, schema.PublishedKey(v.PublishedAt))
	v.CategoryID = keygen.CategoryID(v.RawCategoryID, v.CountryCode)
	v.ID = keygen.HashJoin(v.ChannelID, v.VideoID, v.CountryCode, schema.TrendingKey(v.TrendingDate))
	v.CountryID = keygen.CountryID(v.CountryCode)
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseCount(s string) (sql.NullInt64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid count %q", s)
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}, nil
}

func parseFlag(s string) (sql.NullBool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullBool{}, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return sql.NullBool{}, fmt.Errorf("invalid flag %q", s)
	}
	return sql.NullBool{Bool: b, Valid: true}, nil
}

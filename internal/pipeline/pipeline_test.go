package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trending_etl/internal/config"
	"trending_etl/internal/ingest"
	"trending_etl/internal/keygen"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/model"
	"trending_etl/internal/quality"
	"trending_etl/internal/sink"
)

const (
	newHeader = "video_id,title,publishedAt,channelId,channelTitle,categoryId,trending_date,tags,view_count,likes,dislikes,comment_count,thumbnail_link,comments_disabled,ratings_disabled,description"
	oldHeader = "video_id,trending_date,title,channel_title,category_id,publish_time,tags,views,likes,dislikes,comment_count,thumbnail_link,comments_disabled,ratings_disabled,video_error_or_removed,description"
)

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

// fixture lays out one new-generation US file, one old-generation GB file
// and a US category catalog.
func fixture(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	videos := filepath.Join(root, "videos")
	categories := filepath.Join(root, "categories")

	writeFile(t, videos, "us_videos_new.csv", newHeader,
		`X1,Cat video,2024-01-05T10:00:00Z,UC1,Chan,24,24.01.06,funny|cats,10,1,0,2,http://y,False,False,desc`)
	writeFile(t, videos, "gb_videos_old.csv", oldHeader,
		`G1,17.14.11,Old video,Other,24,2017-11-13T17:13:01.000Z,[none],100,5,1,3,http://x,False,False,False,old desc`)
	writeFile(t, categories, "US_category_id.json",
		`{"items": [{"id": "24", "snippet": {"title": "Entertainment", "assignable": true}}]}`)

	cfg := config.Default()
	cfg.RawDataPath = videos
	cfg.CategoryDataPath = categories
	cfg.OutputDir = filepath.Join(root, "structured_zone")
	cfg.Workers = 2
	return cfg
}

func column(t *testing.T, tbl model.Table, name string) []string {
	t.Helper()
	idx := tbl.ColumnIndex(name)
	require.GreaterOrEqual(t, idx, 0, "%s.%s", tbl.Name, name)
	var out []string
	for _, row := range tbl.Rows {
		out = append(out, row[idx].String)
	}
	return out
}

func load(t *testing.T, dir, name string) model.Table {
	t.Helper()
	tbl, err := quality.LoadCSV(filepath.Join(dir, name+".csv"), name)
	require.NoError(t, err)
	return tbl
}

type recordingPublisher struct {
	runID   string
	outputs []sink.Output
	err     error
}

func (r *recordingPublisher) Publish(_ context.Context, runID string, _ time.Time, outputs []sink.Output) error {
	r.runID = runID
	r.outputs = outputs
	return r.err
}

func TestRunEndToEnd(t *testing.T) {
	cfg := fixture(t)
	cfg.SQLitePath = filepath.Join(cfg.OutputDir, "star.db")
	m := metrics.New()
	pub := &recordingPublisher{}

	p, err := NewETLPipeline(cfg, logger.Nop(), m)
	require.NoError(t, err)
	stats, err := p.WithPublisher(pub).Run(context.Background())
	require.NoError(t, err)

	out := cfg.OutputDir
	assert.Len(t, load(t, out, model.DimChannel).Rows, 2)
	assert.ElementsMatch(t, []string{"funny", "cats"}, column(t, load(t, out, model.DimTag), "tag_name"))

	fact := load(t, out, model.FactTrendingVideo)
	require.Len(t, fact.Rows, 2)
	var usTrendingID string
	countries := column(t, fact, "country_id")
	for i, id := range column(t, fact, "trending_id") {
		if countries[i] == keygen.CountryID("US") {
			usTrendingID = id
		}
	}
	require.NotEmpty(t, usTrendingID)

	bridge := load(t, out, model.DimTagPerVideo)
	assert.Equal(t, []string{usTrendingID, usTrendingID}, column(t, bridge, "trending_id"))
	assert.ElementsMatch(t, []string{keygen.TagID("funny"), keygen.TagID("cats")}, column(t, bridge, "tag_id"))

	country := load(t, out, model.DimCountry)
	names := map[string]string{}
	codes := column(t, country, "country_code")
	for i, name := range column(t, country, "country_name") {
		names[codes[i]] = name
	}
	assert.Equal(t, map[string]string{"US": "United States", "GB": "Great Britain"}, names)

	results, err := quality.CheckDir(out)
	require.NoError(t, err)
	for _, r := range results {
		assert.False(t, r.Missing, r.Table)
		assert.Zero(t, r.Failed(), "%s: %v %v", r.Table, r.KeyErr, r.DuplicateErr)
	}

	assert.Equal(t, 2, stats.VideoFilesProcessed)
	assert.Equal(t, 1, stats.CategoryFilesParsed)
	assert.Equal(t, 2, stats.TotalRowsRead)
	assert.Equal(t, 2, stats.TableRows[model.FactTrendingVideo])
	assert.Contains(t, stats.Outputs, cfg.SQLitePath)

	raw, err := os.ReadFile(cfg.StatsPath())
	require.NoError(t, err)
	var written ETLStats
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.Equal(t, stats.RunID, written.RunID)
	assert.Equal(t, 2, written.TableRows[model.DimChannel])

	assert.Equal(t, stats.RunID, pub.runID)
	assert.Len(t, pub.outputs, 2*len(model.TableOrder))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TableRows.WithLabelValues(model.DimTagPerVideo)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesIngested.WithLabelValues("video")))
}

func TestRunParquetAndMetricsFile(t *testing.T) {
	cfg := fixture(t)
	cfg.Formats = []string{config.FormatCSV, config.FormatParquet}
	cfg.MetricsFile = filepath.Join(t.TempDir(), "trendetl.prom")

	p, err := NewETLPipeline(cfg, logger.Nop(), metrics.New())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	for _, name := range model.TableOrder {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name+".parquet"))
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name+".csv"))
	}
	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `trendetl_table_rows{table="dim_tag"} 2`)
}

func TestRunFailsBeforePublishing(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, cfg.RawDataPath, "ca_videos_new.csv", "video_id,title", "Y1,T")
	pub := &recordingPublisher{}

	p, err := NewETLPipeline(cfg, logger.Nop(), metrics.New())
	require.NoError(t, err)
	_, err = p.WithPublisher(pub).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, pub.runID)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunNoInputFiles(t *testing.T) {
	cfg := fixture(t)
	cfg.RawDataPath = t.TempDir()

	p, err := NewETLPipeline(cfg, logger.Nop(), metrics.New())
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	assert.True(t, errors.Is(err, ingest.ErrNoInputFiles))
}

func TestRunPublishError(t *testing.T) {
	cfg := fixture(t)
	pub := &recordingPublisher{err: errors.New("bucket gone")}

	p, err := NewETLPipeline(cfg, logger.Nop(), metrics.New())
	require.NoError(t, err)
	_, err = p.WithPublisher(pub).Run(context.Background())
	assert.ErrorContains(t, err, "bucket gone")
}

func TestNewETLPipelineUnknownFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Formats = []string{"xlsx"}
	_, err := NewETLPipeline(cfg, logger.Nop(), metrics.New())
	assert.ErrorIs(t, err, sink.ErrUnknownFormat)
}

// Package pipeline runs one full ETL pass: ingest the raw extracts and
// category catalogs, build the star schema, write it to every configured
// sink and record run statistics.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trending_etl/internal/config"
	"trending_etl/internal/ingest"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/model"
	"trending_etl/internal/sink"
	"trending_etl/internal/star"
)

// ETLStats holds the performance metrics of one run.
type ETLStats struct {
	RunID                  string         `json:"run_id"`
	StartedAt              time.Time      `json:"started_at"`
	TotalExecutionTime     string         `json:"total_execution_time"`
	VideoFilesProcessed    int            `json:"video_files_processed"`
	CategoryFilesParsed    int            `json:"category_files_processed"`
	TotalRowsRead          int            `json:"total_rows_read"`
	TotalRowsDropped       int            `json:"total_rows_dropped"`
	TotalBytesProcessed    int64          `json:"total_bytes_processed"`
	ProcessingThroughputMB float64        `json:"processing_throughput_mb_per_sec"`
	TableRows              map[string]int `json:"table_rows"`
	Outputs                []string       `json:"outputs"`
}

// Publisher ships finished outputs somewhere after all local writes
// succeeded.
type Publisher interface {
	Publish(ctx context.Context, runID string, runDate time.Time, outputs []sink.Output) error
}

type ETLPipeline struct {
	cfg       config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	sinks     []sink.Sink
	publisher Publisher
}

// NewETLPipeline wires the sinks named by cfg. S3 publishing is enabled
// when a bucket is configured.
func NewETLPipeline(cfg config.Config, log *logger.Logger, m *metrics.Metrics) (*ETLPipeline, error) {
	p := &ETLPipeline{cfg: cfg, log: log, metrics: m}
	for _, format := range cfg.Formats {
		s, err := sink.New(format, cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		p.sinks = append(p.sinks, s)
	}
	if cfg.SQLitePath != "" {
		p.sinks = append(p.sinks, sink.NewSQLiteWriter(cfg.SQLitePath))
	}
	if cfg.S3.Bucket != "" {
		pub, err := sink.NewS3Publisher(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix, log)
		if err != nil {
			return nil, err
		}
		p.publisher = pub
	}
	return p, nil
}

// WithPublisher replaces the configured publisher.
func (p *ETLPipeline) WithPublisher(pub Publisher) *ETLPipeline {
	p.publisher = pub
	return p
}

type inputs struct {
	videos     *ingest.VideoResult
	categories *ingest.CategoryResult
}

func (p *ETLPipeline) loadInputs(ctx context.Context) (inputs, error) {
	var in inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := ingest.NewVideoIngestor(p.log, p.metrics, p.cfg.Workers).Ingest(gctx, p.cfg.RawDataPath)
		if err != nil {
			return fmt.Errorf("ingest videos: %w", err)
		}
		in.videos = res
		return nil
	})
	g.Go(func() error {
		res, err := ingest.NewCategoryIngestor(p.log, p.metrics, p.cfg.Workers).Ingest(gctx, p.cfg.CategoryDataPath)
		if err != nil {
			return fmt.Errorf("ingest categories: %w", err)
		}
		in.categories = res
		return nil
	})
	return in, g.Wait()
}

// Run executes the pipeline. Any ingestion or write failure aborts the
// run before anything is published.
func (p *ETLPipeline) Run(ctx context.Context) (*ETLStats, error) {
	start := time.Now()
	stats := &ETLStats{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		TableRows: map[string]int{},
	}
	log := p.log.With("run_id", stats.RunID)
	log.Info("starting ETL pipeline", "raw", p.cfg.RawDataPath, "categories", p.cfg.CategoryDataPath,
		"output", p.cfg.OutputDir, "workers", p.cfg.Workers)

	in, err := p.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	stats.VideoFilesProcessed = in.videos.Files
	stats.CategoryFilesParsed = in.categories.Files
	stats.TotalRowsRead = in.videos.RowsRead
	stats.TotalRowsDropped = in.videos.RowsDropped
	stats.TotalBytesProcessed = in.videos.BytesRead
	log.Info("ingested inputs", "videos", len(in.videos.Videos), "categories", len(in.categories.Categories))

	tables := star.Build(in.videos.Videos, in.categories.Categories).Tables()
	for _, t := range tables {
		stats.TableRows[t.Name] = len(t.Rows)
		log.Info("built table", "table", t.Name, "rows", len(t.Rows))
	}

	outputs, err := p.write(ctx, tables)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, o := range outputs {
		if !seen[o.Path] {
			seen[o.Path] = true
			stats.Outputs = append(stats.Outputs, o.Path)
		}
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, stats.RunID, start, outputs); err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
	}

	duration := time.Since(start)
	stats.TotalExecutionTime = duration.String()
	if duration.Seconds() > 0 {
		stats.ProcessingThroughputMB = float64(stats.TotalBytesProcessed) / 1e6 / duration.Seconds()
	}
	for name, n := range stats.TableRows {
		p.metrics.TableRows.WithLabelValues(name).Set(float64(n))
	}
	p.metrics.RunDuration.Set(duration.Seconds())
	p.metrics.LastSuccess.SetToCurrentTime()

	if err := writeStats(p.cfg.StatsPath(), stats); err != nil {
		log.Warn("failed to write stats file", "error", err)
	}
	if p.cfg.MetricsFile != "" {
		if err := p.metrics.WriteTextfile(p.cfg.MetricsFile); err != nil {
			log.Warn("failed to write metrics textfile", "path", p.cfg.MetricsFile, "error", err)
		}
	}

	log.Info("ETL pipeline completed", "duration", duration, "rows_read", stats.TotalRowsRead,
		"rows_dropped", stats.TotalRowsDropped)
	return stats, nil
}

func (p *ETLPipeline) write(ctx context.Context, tables []model.Table) ([]sink.Output, error) {
	var outputs []sink.Output
	for _, s := range p.sinks {
		out, err := s.Write(ctx, tables)
		if err != nil {
			return nil, fmt.Errorf("%s sink: %w", s.Name(), err)
		}
		p.log.Info("wrote tables", "sink", s.Name(), "files", len(out))
		outputs = append(outputs, out...)
	}
	return outputs, nil
}

func writeStats(path string, stats *ETLStats) error {
	statsJSON, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, statsJSON, 0o644)
}

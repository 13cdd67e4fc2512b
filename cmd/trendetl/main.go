package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trending_etl/internal/config"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/pipeline"
)

var (
	configPath = flag.String("config", "", "optional YAML config file")
	timeout    = flag.Duration("timeout", 6*time.Hour, "abort the run after this long")
)

func init() {
	def := config.Default()
	flag.String("raw-data-path", def.RawDataPath, "root of the raw video CSV extracts")
	flag.String("category-data-path", def.CategoryDataPath, "root of the category JSON catalogs")
	flag.String("output-dir", def.OutputDir, "directory the star schema tables are written to")
	flag.String("formats", strings.Join(def.Formats, ","), "comma separated output formats (csv, parquet)")
	flag.String("sqlite-path", "", "also load the star schema into this SQLite database")
	flag.String("s3-bucket", "", "publish outputs to this S3 bucket")
	flag.String("s3-prefix", "", "key prefix for published outputs")
	flag.String("s3-region", def.S3.Region, "AWS region of the S3 bucket")
	flag.Int("workers", def.Workers, "files ingested concurrently")
	flag.String("log-mode", def.LogMode, "dev or prod")
	flag.String("log-level", "", "debug, info, warn or error")
	flag.String("metrics-file", "", "write prometheus metrics to this textfile")
	flag.String("stats-file", "", "run stats JSON (default <output-dir>/etl_stats.json)")
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	flag.Visit(func(f *flag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "timeout" {
			return
		}
		err = cfg.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewETLPipeline(cfg, log, metrics.New())
	if err != nil {
		log.Fatal("pipeline setup failed", "error", err)
	}
	stats, err := p.Run(ctx)
	if err != nil {
		log.Fatal("pipeline failed", "error", err)
	}

	log.Info("ETL pipeline completed successfully", "run_id", stats.RunID,
		"duration", stats.TotalExecutionTime, "stats", cfg.StatsPath())
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"trending_etl/internal/config"
	"trending_etl/internal/ingest"
	"trending_etl/internal/logger"
	"trending_etl/internal/metrics"
	"trending_etl/internal/report"
)

var (
	configPath = flag.String("config", "", "optional YAML config file")
	reportDir  = flag.String("report-dir", "reports", "directory the markdown profiles are written to")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer log.Sync()

	ctx := context.Background()
	m := metrics.New()
	videos, err := ingest.NewVideoIngestor(log, m, cfg.Workers).Ingest(ctx, cfg.RawDataPath)
	if err != nil {
		log.Fatal("ingest videos failed", "error", err)
	}
	categories, err := ingest.NewCategoryIngestor(log, m, cfg.Workers).Ingest(ctx, cfg.CategoryDataPath)
	if err != nil {
		log.Fatal("ingest categories failed", "error", err)
	}

	paths, err := report.WriteDir(*reportDir,
		report.VideoTable(videos.Videos), report.CategoryTable(categories.Categories))
	if err != nil {
		log.Fatal("write report failed", "error", err)
	}
	for _, p := range paths {
		fmt.Printf("Profile: %s\n", p)
	}
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

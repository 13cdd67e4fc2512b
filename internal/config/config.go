package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TRENDETL_"

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

type Config struct {
	RawDataPath      string   `yaml:"raw_data_path"`
	CategoryDataPath string   `yaml:"category_data_path"`
	OutputDir        string   `yaml:"output_dir"`
	Formats          []string `yaml:"formats"`
	SQLitePath       string   `yaml:"sqlite_path"`
	S3               S3Config `yaml:"s3"`
	Workers          int      `yaml:"workers"`
	LogMode          string   `yaml:"log_mode"`
	LogLevel         string   `yaml:"log_level"`
	MetricsFile      string   `yaml:"metrics_file"`
	StatsFile        string   `yaml:"stats_file"`
}

func Default() Config {
	return Config{
		RawDataPath:      "data/videos/",
		CategoryDataPath: "data/categories/",
		OutputDir:        "data/structured_zone",
		Formats:          []string{FormatCSV},
		Workers:          runtime.NumCPU(),
		LogMode:          "dev",
		S3:               S3Config{Region: "us-east-1"},
	}
}

// Load applies, in order: defaults, the YAML file at path (if non-empty),
// a .env file in the working directory (if present), and TRENDETL_*
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			*dst = v
		}
	}
	setString("RAW_DATA_PATH", &c.RawDataPath)
	setString("CATEGORY_DATA_PATH", &c.CategoryDataPath)
	setString("OUTPUT_DIR", &c.OutputDir)
	setString("SQLITE_PATH", &c.SQLitePath)
	setString("S3_BUCKET", &c.S3.Bucket)
	setString("S3_PREFIX", &c.S3.Prefix)
	setString("S3_REGION", &c.S3.Region)
	setString("LOG_MODE", &c.LogMode)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("METRICS_FILE", &c.MetricsFile)
	setString("STATS_FILE", &c.StatsFile)

	if v := strings.TrimSpace(os.Getenv(envPrefix + "FORMATS")); v != "" {
		c.Formats = SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(envPrefix + "WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", envPrefix, err)
		}
		c.Workers = n
	}
	return nil
}

// Set overrides one field by its yaml key. s3 fields use "s3_bucket",
// "s3_prefix" and "s3_region".
func (c *Config) Set(key, value string) error {
	switch key {
	case "raw_data_path":
		c.RawDataPath = value
	case "category_data_path":
		c.CategoryDataPath = value
	case "output_dir":
		c.OutputDir = value
	case "formats":
		c.Formats = SplitList(value)
	case "sqlite_path":
		c.SQLitePath = value
	case "s3_bucket":
		c.S3.Bucket = value
	case "s3_prefix":
		c.S3.Prefix = value
	case "s3_region":
		c.S3.Region = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		c.Workers = n
	case "log_mode":
		c.LogMode = value
	case "log_level":
		c.LogLevel = value
	case "metrics_file":
		c.MetricsFile = value
	case "stats_file":
		c.StatsFile = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// SplitList splits a comma separated flag or env value.
func SplitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StatsPath is where run stats are written.
func (c Config) StatsPath() string {
	if c.StatsFile != "" {
		return c.StatsFile
	}
	return filepath.Join(c.OutputDir, "etl_stats.json")
}

func (c Config) Validate() error {
	switch {
	case c.RawDataPath == "":
		return errors.New("raw_data_path is required")
	case c.CategoryDataPath == "":
		return errors.New("category_data_path is required")
	case c.OutputDir == "":
		return errors.New("output_dir is required")
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case len(c.Formats) == 0:
		return errors.New("at least one output format is required")
	}
	for _, f := range c.Formats {
		if f != FormatCSV && f != FormatParquet {
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	return nil
}

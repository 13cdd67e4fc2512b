// Package metrics collects per-run counters and exports them for the node
// exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for RowsDropped.
const (
	ReasonMissingKey = "missing_key"
	ReasonDuplicate  = "duplicate"
)

type Metrics struct {
	Registry *prometheus.Registry

	FilesIngested *prometheus.CounterVec
	RowsRead      *prometheus.CounterVec
	RowsDropped   *prometheus.CounterVec
	TableRows     *prometheus.GaugeVec
	RunDuration   prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FilesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendetl_files_ingested_total",
			Help: "Raw files ingested, by kind",
		}, []string{"kind"}),
		RowsRead: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendetl_rows_read_total",
			Help: "Raw rows read, by kind",
		}, []string{"kind"}),
		RowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendetl_rows_dropped_total",
			Help: "Raw video rows dropped during cleaning, by reason",
		}, []string{"reason"}),
		TableRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendetl_table_rows",
			Help: "Rows written per output table",
		}, []string{"table"}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "trendetl_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "trendetl_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
	}
}

// WriteTextfile dumps the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

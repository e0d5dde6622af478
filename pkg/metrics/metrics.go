// Package metrics records per-target write statistics with Prometheus and
// can dump them in the node exporter textfile format after a job.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the CSV writer metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	records   *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	batches   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastWrite *prometheus.GaugeVec
}

// NewCollector creates a collector. If registry is nil a private registry
// is created.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "csvwriter"
	}

	c := &Collector{
		registry: registry,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Data rows written to CSV targets.",
		}, []string{"target"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Encoded bytes appended to CSV targets.",
		}, []string{"target"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_written_total",
			Help:      "Successful WriteRecords calls.",
		}, []string{"target"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Failed writes by error kind.",
		}, []string{"target", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_write_duration_seconds",
			Help:      "Time spent in one WriteRecords call.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"target"}),
		lastWrite: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_write_timestamp_seconds",
			Help:      "Unix time of the last successful write.",
		}, []string{"target"}),
	}

	registry.MustRegister(c.records, c.bytes, c.batches, c.failures, c.duration, c.lastWrite)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordBatch records one successful batch
func (c *Collector) RecordBatch(target string, rows int, bytes int64, duration time.Duration) {
	c.records.WithLabelValues(target).Add(float64(rows))
	c.bytes.WithLabelValues(target).Add(float64(bytes))
	c.batches.WithLabelValues(target).Inc()
	c.duration.WithLabelValues(target).Observe(duration.Seconds())
	c.lastWrite.WithLabelValues(target).SetToCurrentTime()
}

// RecordFailure records a failed write of the given error kind
func (c *Collector) RecordFailure(target string, kind string) {
	c.failures.WithLabelValues(target, kind).Inc()
}

// WriteTextfile dumps all metrics to path for the node exporter
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

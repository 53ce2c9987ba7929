// Package metrics exposes a thread-safe collector of run counters as
// Prometheus metrics, adapted from the connector SDK's MetricsCollector
// (sdk/metrics/metrics.go) to the shuttle's file-processing domain.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the running totals for one shuttle process and doubles
// as a prometheus.Collector so it can be registered directly with a
// registry. All methods are safe for concurrent use.
type Collector struct {
	filesProcessed atomic.Int64
	volumeBytes    atomic.Int64
	successFiles   atomic.Int64
	suspectFiles   atomic.Int64
	failedFiles    atomic.Int64
	pendingFiles   atomic.Int64
	runningSince   atomic.Int64

	filesProcessedDesc *prometheus.Desc
	volumeBytesDesc    *prometheus.Desc
	successFilesDesc   *prometheus.Desc
	suspectFilesDesc   *prometheus.Desc
	failedFilesDesc    *prometheus.Desc
	pendingFilesDesc   *prometheus.Desc
	runningSinceDesc   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// New builds a Collector. namespace is used as the Prometheus metric name
// prefix (e.g. "shuttle").
func New(namespace string) *Collector {
	return &Collector{
		filesProcessedDesc: prometheus.NewDesc(namespace+"_files_processed_total", "total files admitted into the pipeline", nil, nil),
		volumeBytesDesc:    prometheus.NewDesc(namespace+"_bytes_processed_total", "total bytes admitted into the pipeline", nil, nil),
		successFilesDesc:   prometheus.NewDesc(namespace+"_files_clean_total", "files routed to the destination as clean", nil, nil),
		suspectFilesDesc:   prometheus.NewDesc(namespace+"_files_suspect_total", "files flagged as suspect by a scanner", nil, nil),
		failedFilesDesc:    prometheus.NewDesc(namespace+"_files_failed_total", "files that could not be processed", nil, nil),
		pendingFilesDesc:   prometheus.NewDesc(namespace+"_files_pending", "files currently awaiting a scan result", nil, nil),
		runningSinceDesc:   prometheus.NewDesc(namespace+"_running_since_seconds", "unix time the current run started", nil, nil),
	}
}

// AddAdmitted records one file entering the pipeline.
func (c *Collector) AddAdmitted(sizeBytes int64) {
	c.filesProcessed.Add(1)
	c.volumeBytes.Add(sizeBytes)
	c.pendingFiles.Add(1)
}

// AddOutcome records one file leaving the pipeline with the given result.
// Exactly one of success/suspect/failed should be true.
func (c *Collector) AddOutcome(success, suspect, failed bool) {
	c.pendingFiles.Add(-1)
	switch {
	case success:
		c.successFiles.Add(1)
	case suspect:
		c.suspectFiles.Add(1)
	case failed:
		c.failedFiles.Add(1)
	}
}

// SetRunningSince stamps the run-start gauge.
func (c *Collector) SetRunningSince(unixSeconds int64) {
	c.runningSince.Store(unixSeconds)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.filesProcessedDesc
	ch <- c.volumeBytesDesc
	ch <- c.successFilesDesc
	ch <- c.suspectFilesDesc
	ch <- c.failedFilesDesc
	ch <- c.pendingFilesDesc
	ch <- c.runningSinceDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.filesProcessedDesc, prometheus.CounterValue, float64(c.filesProcessed.Load()))
	ch <- prometheus.MustNewConstMetric(c.volumeBytesDesc, prometheus.CounterValue, float64(c.volumeBytes.Load()))
	ch <- prometheus.MustNewConstMetric(c.successFilesDesc, prometheus.CounterValue, float64(c.successFiles.Load()))
	ch <- prometheus.MustNewConstMetric(c.suspectFilesDesc, prometheus.CounterValue, float64(c.suspectFiles.Load()))
	ch <- prometheus.MustNewConstMetric(c.failedFilesDesc, prometheus.CounterValue, float64(c.failedFiles.Load()))
	ch <- prometheus.MustNewConstMetric(c.pendingFilesDesc, prometheus.GaugeValue, float64(c.pendingFiles.Load()))
	ch <- prometheus.MustNewConstMetric(c.runningSinceDesc, prometheus.GaugeValue, float64(c.runningSince.Load()))
}

// Package metrics counts fetches and extracted rows for one abt run.
//
// Each Recorder owns a private prometheus registry, so runs never share
// state. The CLI dumps the registry in the node-exporter textfile format
// when --metrics-file is given.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks operational metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	fetches     *prometheus.CounterVec
	fetchTime   prometheus.Histogram
	rows        *prometheus.CounterVec
	joinDropped prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abt_fetch_total",
			Help: "Page fetches by HTTP status (0 for transport errors).",
		}, []string{"status"}),
		fetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "abt_fetch_duration_seconds",
			Help:    "Page fetch latency.",
			Buckets: prometheus.DefBuckets,
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abt_rows_extracted_total",
			Help: "Rows returned by Data() per extractor.",
		}, []string{"extractor"}),
		joinDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abt_join_dropped_total",
			Help: "Entries dropped by the entry/odds join for lack of odds.",
		}),
	}
	r.registry.MustRegister(r.fetches, r.fetchTime, r.rows, r.joinDropped)
	return r
}

// ObserveFetch records one page fetch.
func (r *Recorder) ObserveFetch(status int, d time.Duration) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(strconv.Itoa(status)).Inc()
	r.fetchTime.Observe(d.Seconds())
}

// AddRows records rows produced by an extractor.
func (r *Recorder) AddRows(extractor string, n int) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(extractor).Add(float64(n))
}

// AddJoinDropped records entries lost in the entry/odds join.
func (r *Recorder) AddJoinDropped(n int) {
	if r == nil {
		return
	}
	r.joinDropped.Add(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteFile writes every metric to path in the textfile exposition format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Package metrics provides a small per-run Prometheus registry for the
// safaristats pipelines, written to a textfile-collector file at the end
// of each invocation.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the counters and histogram a single pipeline run
// updates. Each run creates its own Registry to avoid collector
// conflicts between the camera and user invocations.
type Registry struct {
	registry *prometheus.Registry

	RowsRead    prometheus.Counter
	RowsDropped prometheus.Counter
	Spills      prometheus.Counter
	Duration    prometheus.Histogram
}

// New creates a Registry with pipeline metrics registered under the
// given subsystem name ("camera" or "user").
func New(subsystem string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safaristats",
			Subsystem: subsystem,
			Name:      "rows_read_total",
			Help:      "Number of input log rows read.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safaristats",
			Subsystem: subsystem,
			Name:      "rows_dropped_total",
			Help:      "Number of malformed input rows silently dropped.",
		}),
		Spills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safaristats",
			Subsystem: subsystem,
			Name:      "spills_total",
			Help:      "Number of in-memory batches/segments spilled to disk.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safaristats",
			Subsystem: subsystem,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall-clock duration of a full pipeline invocation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(r.RowsRead, r.RowsDropped, r.Spills, r.Duration)

	return r
}

// WriteTextfile writes the registry's current values to path using the
// Prometheus textfile-collector format, for consumption by node_exporter
// or a similar scraper.
func (r *Registry) WriteTextfile(path string) error {
	err := prometheus.WriteToTextfile(path, r.registry)
	if err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}

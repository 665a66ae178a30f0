// Package metrics records per-run parsing metrics in a private Prometheus
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arjunmahishi/pyscribe/pyscribe"
)

// Recorder implements pyscribe.Observer.
type Recorder struct {
	registry *prometheus.Registry

	ParseDuration prometheus.Histogram
	Items         *prometheus.CounterVec
	FilesTotal    prometheus.Counter
	FilesFailed   *prometheus.CounterVec
}

var _ pyscribe.Observer = (*Recorder)(nil)

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		ParseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyscribe_parse_seconds",
			Help:    "Time spent reading and parsing a source file.",
			Buckets: prometheus.DefBuckets,
		}),
		Items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyscribe_items_total",
			Help: "Structural items extracted, by rule.",
		}, []string{"rule"}),
		FilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pyscribe_files_total",
			Help: "Files handed to the parser.",
		}),
		FilesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyscribe_files_failed_total",
			Help: "Files that could not be read or parsed, by error code.",
		}, []string{"code"}),
	}

	// Pre-create series so every rule shows up, even at zero.
	for _, rule := range pyscribe.Rules() {
		r.Items.WithLabelValues(rule.String())
	}
	return r
}

// ObserveFile records one parsed file.
func (r *Recorder) ObserveFile(elapsed time.Duration, items []pyscribe.LocatedItem, err error) {
	r.FilesTotal.Inc()
	r.ParseDuration.Observe(elapsed.Seconds())

	if err != nil {
		r.FilesFailed.WithLabelValues(errorCode(err)).Inc()
		return
	}
	for _, item := range items {
		r.Items.WithLabelValues(item.Rule.String()).Inc()
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func errorCode(err error) string {
	for _, code := range []pyscribe.ErrorCode{
		pyscribe.CodeEmptyContent,
		pyscribe.CodeUnterminatedDocstring,
		pyscribe.CodeSyntax,
		pyscribe.CodeIO,
	} {
		if pyscribe.IsCode(err, code) {
			return string(code)
		}
	}
	return "UNKNOWN"
}

// Package metrics records per-run counters and pushes them to a Prometheus
// Pushgateway. docsync runs as a batch job, so nothing is scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/starford/docsync/internal/index"
	"github.com/starford/docsync/internal/pipeline"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	Files       *prometheus.CounterVec
	Documents   *prometheus.CounterVec
}

// New registers the docsync collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsync_runs_total",
			Help: "Pipeline passes by pass and result",
		}, []string{"pass", "result"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsync_run_duration_seconds",
			Help:    "Duration of pipeline passes in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"pass"}),

		Files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsync_files_total",
			Help: "Files handled by the anchor and summary passes by outcome",
		}, []string{"pass", "outcome"}),

		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsync_documents_total",
			Help: "Store operations performed by sync by operation",
		}, []string{"op"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRun counts one pass by result.
func (m *Metrics) ObserveRun(pass string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Runs.WithLabelValues(pass, result).Inc()
}

// ObserveAnchors records an anchor pass.
func (m *Metrics) ObserveAnchors(rep pipeline.AnchorReport) {
	m.RunDuration.WithLabelValues("anchors").Observe(rep.Duration.Seconds())
	m.Files.WithLabelValues("anchors", "scanned").Add(float64(rep.Scanned))
	m.Files.WithLabelValues("anchors", "modified").Add(float64(rep.Modified))
	m.Files.WithLabelValues("anchors", "failed").Add(float64(rep.Failed))
}

// ObserveSummaries records a summary pass.
func (m *Metrics) ObserveSummaries(rep pipeline.SummaryReport) {
	m.RunDuration.WithLabelValues("summarize").Observe(rep.Duration.Seconds())
	m.Files.WithLabelValues("summarize", "scanned").Add(float64(rep.Scanned))
	m.Files.WithLabelValues("summarize", "generated").Add(float64(rep.Generated))
	m.Files.WithLabelValues("summarize", "relabeled").Add(float64(rep.Relabeled))
	m.Files.WithLabelValues("summarize", "failed").Add(float64(rep.Failed))
}

// ObserveSync records a sync pass.
func (m *Metrics) ObserveSync(rep index.Report) {
	m.RunDuration.WithLabelValues("sync").Observe(rep.Duration.Seconds())
	m.Documents.WithLabelValues("created").Add(float64(rep.Created))
	m.Documents.WithLabelValues("updated").Add(float64(rep.Updated))
	m.Documents.WithLabelValues("deleted").Add(float64(rep.Deleted))
	m.Documents.WithLabelValues("failed").Add(float64(rep.Failed))
}

// ObserveAll records every pass of a full run.
func (m *Metrics) ObserveAll(rep pipeline.RunReport) {
	m.ObserveAnchors(rep.Anchors)
	if rep.Summaries != nil {
		m.ObserveSummaries(*rep.Summaries)
	}
	m.ObserveSync(rep.Sync)
}

// Push sends the current values to the Pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push: %w", err)
	}
	return nil
}

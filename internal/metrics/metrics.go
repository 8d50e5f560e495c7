// Package metrics exposes batch progress as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/nvencoder/pkg/domain"
)

const namespace = "nvencoder"

// Collector owns a private registry so several workers in one process,
// or tests, never collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	files    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	percent  prometheus.Gauge
	active   prometheus.Gauge
	batches  *prometheus.CounterVec
}

// New registers every collector, plus the Go runtime and process ones.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files processed, by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Wall time spent per file, by final status.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"status"}),
		percent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_file_percent",
			Help:      "Completion of the file being encoded, -1 when unknown.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_files",
			Help:      "Files currently being processed.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Finished batches, by outcome.",
		}, []string{"outcome"}),
	}
	c.percent.Set(-1)
	c.registry.MustRegister(
		c.files, c.duration, c.percent, c.active, c.batches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Hooks records worker events.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFileStart: func(_ context.Context, _ *domain.FileEvent) {
			c.active.Inc()
			c.percent.Set(-1)
		},
		OnProgress: func(_ context.Context, e *domain.FileEvent) {
			if e.Progress != nil {
				c.percent.Set(float64(e.Progress.Percent))
			}
		},
		OnFileFinish: func(_ context.Context, e *domain.FileEvent) {
			c.active.Dec()
			c.percent.Set(-1)
			if e.Result == nil {
				return
			}
			status := string(e.Result.Status)
			c.files.WithLabelValues(status).Inc()
			c.duration.WithLabelValues(status).Observe(e.Result.Elapsed.Seconds())
		},
		OnBatchFinish: func(_ context.Context, e *domain.BatchEvent) {
			c.batches.WithLabelValues(batchOutcome(e)).Inc()
		},
	}
}

func batchOutcome(e *domain.BatchEvent) string {
	if e.Canceled {
		return "canceled"
	}
	for _, r := range e.Results {
		if r.Status == domain.StatusFailed {
			return "failed"
		}
	}
	return "ok"
}

// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	hooks, err := prom.New(reg)
//	if err != nil {
//	    return err
//	}
//	hooks.Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/forkview/pkg/observability"
)

const namespace = "forkview"

// Hooks records every observability event as a Prometheus metric.
type Hooks struct {
	selections prometheus.Counter
	mutations  *prometheus.CounterVec
	mutationD  *prometheus.HistogramVec
	layouts    prometheus.Histogram
	blocks     prometheus.Gauge
	renders    *prometheus.CounterVec
	renderD    prometheus.Histogram
	cache      *prometheus.CounterVec
	cacheBytes prometheus.Counter
	requests   *prometheus.CounterVec
	requestD   *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "controller", Name: "selections_total",
			Help: "Selection changes.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "controller", Name: "mutations_total",
			Help: "Append, fork and reset actions by outcome.",
		}, []string{"action", "status"}),
		mutationD: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "controller", Name: "mutation_duration_seconds",
			Help:    "Time to create and commit a mutation.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"action"}),
		layouts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "layout_duration_seconds",
			Help:    "Layout pass duration.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "layout_blocks",
			Help: "Blocks placed by the most recent layout pass.",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "renders_total",
			Help: "Render passes by outcome.",
		}, []string{"status"}),
		renderD: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "render_duration_seconds",
			Help:    "Render pass duration.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "operations_total",
			Help: "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Served HTTP requests.",
		}, []string{"method", "route", "code"}),
		requestD: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		h.selections, h.mutations, h.mutationD, h.layouts, h.blocks,
		h.renders, h.renderD, h.cache, h.cacheBytes, h.requests, h.requestD,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Install registers h as the global mutation, pipeline, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetMutationHooks(h)
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// =============================================================================
// Hook implementations
// =============================================================================

func (h *Hooks) OnSelect(context.Context, string, int) { h.selections.Inc() }

func (h *Hooks) OnMutation(_ context.Context, action string, _ int, d time.Duration, err error) {
	h.mutations.WithLabelValues(action, status(err)).Inc()
	h.mutationD.WithLabelValues(action).Observe(d.Seconds())
}

func (h *Hooks) OnLayoutStart(context.Context, int) {}

func (h *Hooks) OnLayoutComplete(_ context.Context, blockCount int, d time.Duration, _ error) {
	h.layouts.Observe(d.Seconds())
	h.blocks.Set(float64(blockCount))
}

func (h *Hooks) OnRenderStart(context.Context, []string) {}

func (h *Hooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.renders.WithLabelValues(status(err)).Inc()
	h.renderD.Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cache.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cache.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cache.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *Hooks) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestD.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.MutationHooks = (*Hooks)(nil)
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)

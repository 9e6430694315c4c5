package server

import (
	"net/http"
	"time"

	"mini-planet/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports planet and connection statistics. It implements
// planet.Observer.
type Metrics struct {
	reg         *prometheus.Registry
	rebuild     *prometheus.HistogramVec
	vertices    prometheus.Gauge
	clients     prometheus.Gauge
	stamps      prometheus.Counter
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	frameBytes  prometheus.Histogram
}

// NewMetrics registers the collectors on a private registry so several
// servers (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		rebuild: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planet",
			Name:      "rebuild_duration_seconds",
			Help:      "Time to bring the planet up to date after a settings change.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"change"}),
		vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "planet",
			Name:      "mesh_vertices",
			Help:      "Vertices in the published mesh.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "planet",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
		stamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planet",
			Name:      "crater_stamps_total",
			Help:      "Craters stamped interactively.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planet",
			Name:      "mesh_cache_hits_total",
			Help:      "Mesh cache lookups that found a mesh.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planet",
			Name:      "mesh_cache_misses_total",
			Help:      "Mesh cache lookups that had to build.",
		}),
		frameBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planet",
			Name:      "mesh_frame_bytes",
			Help:      "Size of encoded mesh frames sent to clients.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),
	}
	m.reg.MustRegister(m.rebuild, m.vertices, m.clients, m.stamps, m.cacheHits, m.cacheMisses, m.frameBytes)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Rebuilt(kind config.ChangeKind, took time.Duration, vertices int) {
	m.rebuild.WithLabelValues(kind.String()).Observe(took.Seconds())
	m.vertices.Set(float64(vertices))
}

func (m *Metrics) Stamped() { m.stamps.Inc() }

func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

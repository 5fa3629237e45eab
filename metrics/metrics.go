package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "syndicate"

// Collector holds the pipeline and HTTP metrics on a private registry, so
// several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	payloadsTotal    *prometheus.CounterVec
	payloadDuration  *prometheus.HistogramVec
	validationsTotal *prometheus.CounterVec
	strategyRepairs  prometheus.Counter
	imageMapSize     prometheus.Histogram
}

// New creates a Collector with Go runtime and process collectors registered.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	c.payloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_total",
			Help:      "Platform payload builds by platform and result status",
		},
		[]string{"platform", "status"},
	)
	c.payloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payload_build_seconds",
			Help:      "Time spent building one platform payload",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"platform"},
	)
	c.validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_validations_total",
			Help:      "Strategy validations by outcome (valid, repaired, rejected, unparseable)",
		},
		[]string{"outcome"},
	)
	c.strategyRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_repairs_total",
			Help:      "Optional strategy fields filled with defaults",
		},
	)
	c.imageMapSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_map_entries",
			Help:      "Resolved images per image reference map",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		},
	)

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.payloadsTotal,
		c.payloadDuration,
		c.validationsTotal,
		c.strategyRepairs,
		c.imageMapSize,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObservePayload records one builder run.
func (c *Collector) ObservePayload(platform, status string, elapsed time.Duration) {
	c.payloadsTotal.WithLabelValues(platform, status).Inc()
	c.payloadDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

// ObserveValidation records a strategy validation outcome and its repair count.
func (c *Collector) ObserveValidation(outcome string, repairs int) {
	c.validationsTotal.WithLabelValues(outcome).Inc()
	if repairs > 0 {
		c.strategyRepairs.Add(float64(repairs))
	}
}

// ObserveImageMap records how many images a map resolved.
func (c *Collector) ObserveImageMap(entries int) {
	c.imageMapSize.Observe(float64(entries))
}

// Middleware collects request counts and latency labelled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

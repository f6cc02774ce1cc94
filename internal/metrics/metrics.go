// Package metrics собирает счётчики сервиса для Prometheus.
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

const namespace = "plainevents"

type Metrics struct {
	registry *prometheus.Registry

	metaboxOutcomes  *prometheus.CounterVec
	shortcodeRenders prometheus.Counter
	shortcodeEvents  prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New регистрирует счётчики в собственном реестре, чтобы несколько
// экземпляров (например, в тестах) не конфликтовали.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		metaboxOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metabox_saves_total",
			Help:      "Event metadata save attempts by outcome.",
		}, []string{"outcome"}),
		shortcodeRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shortcode_renders_total",
			Help:      "Rendered upcoming_events shortcodes.",
		}),
		shortcodeEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shortcode_events",
			Help:      "Number of events per rendered listing.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.metaboxOutcomes,
		m.shortcodeRenders,
		m.shortcodeEvents,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) MetaboxOutcome(outcome string) {
	m.metaboxOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ShortcodeRendered(events int) {
	m.shortcodeRenders.Inc()
	m.shortcodeEvents.Observe(float64(events))
}

// Handler отдаёт метрики в формате exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware считает запросы по шаблону маршрута chi, а не по сырому пути,
// чтобы идентификаторы не раздували кардинальность.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

package http

import (
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsRegistry = newMetricsRegistry()
	factory         = promauto.With(metricsRegistry)

	httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "lab_tracker_http_requests_total",
		Help: "Total HTTP requests handled by this app.",
	}, []string{"method", "path", "status"})
	httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lab_tracker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by normalised route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	httpInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "lab_tracker_http_in_flight_requests",
		Help: "In-flight HTTP requests currently served by this app.",
	})
	dbQueryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lab_tracker_db_query_duration_seconds",
		Help:    "Duration of store operations.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"connector", "operation"})
	dbQueryErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "lab_tracker_db_query_errors_total",
		Help: "Store operations that returned an error.",
	}, []string{"connector", "operation"})
	reportRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "lab_tracker_report_renders_total",
		Help: "Rendered reports and exports by kind and outcome.",
	}, []string{"report", "status"})
	reportDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lab_tracker_report_render_duration_seconds",
		Help:    "Time spent loading and rendering reports.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"report"})
)

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func metricsHandler() nethttp.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{Registry: metricsRegistry})
}

type statusRecorder struct {
	nethttp.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func observabilityMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)

		route := normalizeMetricPath(r.URL.Path)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

var idCollections = map[string]bool{
	"clients":   true,
	"projects":  true,
	"jobs":      true,
	"shifts":    true,
	"samples":   true,
	"markers":   true,
	"fibre-id":  true,
	"lead-coc":  true,
	"equipment": true,
	"users":     true,
}

// normalizeMetricPath collapses record IDs so route labels stay bounded.
func normalizeMetricPath(path string) string {
	if !strings.HasPrefix(path, "/api/v1/") {
		switch path {
		case "/", "/metrics", "/health", "/ready", "/favicon.ico":
			return path
		}
		return "other"
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 3; i < len(parts); i++ {
		if !idCollections[parts[i-1]] {
			continue
		}
		if ext := strings.LastIndex(parts[i], "."); ext > 0 {
			parts[i] = "{id}" + parts[i][ext:]
		} else {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func recordDBQuery(connector, operation string, durationSeconds float64, err error) {
	if connector == "" || operation == "" {
		return
	}
	dbQueryDuration.WithLabelValues(connector, operation).Observe(durationSeconds)
	if err != nil {
		dbQueryErrors.WithLabelValues(connector, operation).Inc()
	}
}

func recordReportRun(report string, durationSeconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	reportRuns.WithLabelValues(report, status).Inc()
	reportDuration.WithLabelValues(report).Observe(durationSeconds)
}

package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal      *prometheus.CounterVec
	answerReferences  *prometheus.HistogramVec
	answerRetrieval   *prometheus.HistogramVec
	answerNoReference *prometheus.CounterVec

	*GroundingMetrics
	*BreakerMetrics
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gomi",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Total answered questions by mode.",
		},
		[]string{"service", "mode"},
	)
	answerReferences := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "answer",
			Name:      "references",
			Help:      "Distribution of references handed to the answer model.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		},
		[]string{"service", "mode"},
	)
	answerRetrieval := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "answer",
			Name:      "retrieval_seconds",
			Help:      "Grounding plus knowledge retrieval time before generation.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "mode"},
	)
	answerNoReference := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "answer",
			Name:      "no_context_total",
			Help:      "Total answers generated without any retrieved context.",
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		answerReferences,
		answerRetrieval,
		answerNoReference,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		answersTotal:      answersTotal,
		answerReferences:  answerReferences,
		answerRetrieval:   answerRetrieval,
		answerNoReference: answerNoReference,
		GroundingMetrics:  NewGroundingMetrics(registry, service),
		BreakerMetrics:    NewBreakerMetrics(registry, service),
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps per-upload ids out of the path label.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/catalogs/"):
		return "/v1/catalogs/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAnswer(mode string, references int, retrieval time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.answersTotal.WithLabelValues(m.service, mode).Inc()
	m.answerReferences.WithLabelValues(m.service, mode).Observe(float64(references))
	m.answerRetrieval.WithLabelValues(m.service, mode).Observe(retrieval.Seconds())
	if references == 0 {
		m.answerNoReference.WithLabelValues(m.service, mode).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

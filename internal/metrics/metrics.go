package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label used for paths and methods outside the known set, to bound cardinality
const otherLabel = "other"

// CORS decision labels
const (
	CorsAllowed   = "allowed"
	CorsRejected  = "rejected"
	CorsPreflight = "preflight"
	CorsNone      = "none"
)

// Metrics holds the service collectors
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CorsDecisions   *prometheus.CounterVec

	knownPaths map[string]struct{}
}

// New creates the service collectors and registers them with registry. Only paths in
// knownPaths are used as label values; everything else is reported as "other".
func New(registry prometheus.Registerer, constLabels prometheus.Labels, knownPaths ...string) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Number of HTTP requests served",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CorsDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cors_decisions_total",
			Help:        "CORS policy decisions by outcome",
			ConstLabels: constLabels,
		}, []string{"decision"}),
		knownPaths: make(map[string]struct{}, len(knownPaths)),
	}
	for _, p := range knownPaths {
		m.knownPaths[p] = struct{}{}
	}

	registry.MustRegister(m.Requests)
	registry.MustRegister(m.RequestDuration)
	registry.MustRegister(m.CorsDecisions)

	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	method = MethodLabel(method)
	path = m.PathLabel(path)
	m.Requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveCorsDecision records the outcome of the CORS policy for one request.
func (m *Metrics) ObserveCorsDecision(decision string) {
	m.CorsDecisions.WithLabelValues(decision).Inc()
}

// PathLabel maps a request path to a bounded label value.
func (m *Metrics) PathLabel(path string) string {
	if _, ok := m.knownPaths[path]; ok {
		return path
	}
	return otherLabel
}

// MethodLabel maps a request method to a bounded label value.
func MethodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return otherLabel
	}
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewServer returns the admin server exposing /metrics on addr.
func NewServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
}

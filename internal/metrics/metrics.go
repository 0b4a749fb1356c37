package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes viewer metrics that are safe to scrape via Prometheus. A
// nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	navigations         *prometheus.CounterVec
	renders             *prometheus.CounterVec
	unmatchedNodes      *prometheus.CounterVec
	panelOpens          *prometheus.CounterVec
	sessions            prometheus.Gauge
}

// New creates a fresh registry with every lookin metric registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lookin",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests served by the viewer",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lookin",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the viewer",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	navigations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lookin",
		Name:      "navigations_total",
		Help:      "Layer navigations by outcome",
	}, []string{"outcome"})

	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lookin",
		Name:      "renders_total",
		Help:      "Layer renders by strategy and final state",
	}, []string{"strategy", "state"})

	unmatchedNodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lookin",
		Name:      "unmatched_nodes_total",
		Help:      "Declared nodes that could not be resolved against a rendered diagram",
	}, []string{"layer"})

	panelOpens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lookin",
		Name:      "panel_opens_total",
		Help:      "Side panel opens by mode and outcome",
	}, []string{"mode", "outcome"})

	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lookin",
		Name:      "sessions_active",
		Help:      "Open viewer sessions",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		navigations,
		renders,
		unmatchedNodes,
		panelOpens,
		sessions,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		navigations:         navigations,
		renders:             renders,
		unmatchedNodes:      unmatchedNodes,
		panelOpens:          panelOpens,
		sessions:            sessions,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// IncNavigation counts a navigation attempt. outcome is "ok", "not_found"
// or "panel".
func (m *Metrics) IncNavigation(outcome string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(outcome).Inc()
}

// IncRender counts a finished render.
func (m *Metrics) IncRender(strategy, state string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(strategy, state).Inc()
}

// AddUnmatched adds n unresolved nodes for a layer.
func (m *Metrics) AddUnmatched(layer string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unmatchedNodes.WithLabelValues(layer).Add(float64(n))
}

// IncPanelOpen counts a panel open.
func (m *Metrics) IncPanelOpen(mode string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.panelOpens.WithLabelValues(mode, outcome).Inc()
}

// SessionOpened and SessionClosed track live sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

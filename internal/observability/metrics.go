package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APICollector bundles Prometheus metrics for the demands API and the engine
// invocations behind it, and provides helpers to wire them into HTTP
// handlers.
type APICollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	EngineRuns         *prometheus.CounterVec
	EngineRunDurations *prometheus.HistogramVec

	InFlightRequests prometheus.Gauge
}

// NewAPICollector registers the demands API metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAPICollector(reg prometheus.Registerer) (*APICollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demands_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and HTTP status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "demands_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demands_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "demands_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	engineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_runs_total",
		Help: "Total number of engine invocations, labeled by analysis mode and outcome (ok, failed, timeout, error).",
	}, []string{"mode", "outcome"})
	engineRuns, err = registerCounterVec(reg, engineRuns, "engine_runs_total")
	if err != nil {
		return nil, err
	}

	engineDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_run_duration_seconds",
		Help:    "Engine invocation wall-clock time in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"mode"})
	engineDurations, err = registerHistogramVec(reg, engineDurations, "engine_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	inflight, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "demands_inflight_requests",
		Help: "Number of analysis requests currently being processed.",
	}), "demands_inflight_requests")
	if err != nil {
		return nil, err
	}

	return &APICollector{
		gatherer:           gatherer,
		HTTPRequests:       requests,
		HTTPDurations:      durations,
		EngineRuns:         engineRuns,
		EngineRunDurations: engineDurations,
		InFlightRequests:   inflight,
	}, nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts, durations, and in-flight gauge values
// for every request passing through it.
func (c *APICollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		if c.InFlightRequests != nil {
			c.InFlightRequests.Inc()
			defer c.InFlightRequests.Dec()
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// ObserveEngineRun satisfies core's EngineMetricsRecorder interface so the
// Analyzer can drive engine metrics directly from its outcome classifier.
func (c *APICollector) ObserveEngineRun(mode, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.EngineRuns != nil {
		c.EngineRuns.WithLabelValues(mode, outcome).Inc()
	}
	if c.EngineRunDurations != nil {
		c.EngineRunDurations.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *APICollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

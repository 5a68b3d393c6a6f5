// Package metrics exposes Prometheus metrics for the resolver front-ends.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for a lookup.
const (
	OutcomeFound          = "found"
	OutcomeAbsent         = "absent"
	OutcomeBadRequest     = "bad_request"
	OutcomeEncodingError  = "encoding_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodingError  = "decoding_error"
	OutcomeCancelled      = "cancelled"
	OutcomeInternalError  = "internal_error"
)

// MetricsServer owns a private registry and the HTTP server exposing it.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	// Lookups counts lookups by operation and outcome.
	Lookups *prometheus.CounterVec

	// LookupLatency tracks lookup duration by operation.
	LookupLatency *prometheus.HistogramVec
}

// New registers the resolver metrics under namespace. listenAddr may be
// empty when metrics are only read through Handler.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	factory := promauto.With(registry)
	m := &MetricsServer{
		registry: registry,
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total registry lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of registry lookups including the node round trip",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.srv = &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m, nil
}

// ObserveLookup records one finished lookup.
func (m *MetricsServer) ObserveLookup(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(operation, outcome).Inc()
	m.LookupLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *MetricsServer) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics for one registry on its own listener.
type MetricsServer struct {
	Registry *prometheus.Registry
	Metrics  *Metrics

	srv *http.Server
}

// NewServer creates a registry with the Go runtime collectors and the ledger
// collectors registered on it.
func NewServer(namespace, listenAddr string) (*MetricsServer, error) {
	if namespace == "" {
		return nil, errors.New("metrics namespace must not be empty")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		Registry: reg,
		Metrics:  New(namespace, reg),
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// Handler exposes the /metrics router, used by tests.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}

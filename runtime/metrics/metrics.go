// Package metrics exposes every pipe's Context counters as Prometheus
// gauges, mirrored from the Context Store on a fixed refresh. It is an
// optional observer of the same snapshots the store renders; enabling it
// never changes kernel behavior.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pipebase/pipebase/runtime/ctxstore"
	"github.com/pipebase/pipebase/runtime/kernel"
)

const namespace = "pipebase"

const readHeaderTimeout = 10 * time.Second

// Exporter serves pipe run counters over HTTP for Prometheus scraping.
type Exporter struct {
	addr     string
	registry *prometheus.Registry

	totalRun   *prometheus.GaugeVec
	successRun *prometheus.GaugeVec
	state      *prometheus.GaugeVec
}

// NewExporter builds an Exporter with its own registry so a generated
// program embedding other instrumented libraries never collides on metric
// names.
func NewExporter(addr string) *Exporter {
	e := &Exporter{
		addr:     addr,
		registry: prometheus.NewRegistry(),
		totalRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipe_total_run",
			Help:      "Total rounds attempted by the pipe",
		}, []string{"pipe"}),
		successRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipe_success_run",
			Help:      "Successful rounds completed by the pipe",
		}, []string{"pipe"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipe_state",
			Help:      "Pipe task state machine position",
		}, []string{"pipe", "state"}),
	}
	e.registry.MustRegister(e.totalRun, e.successRun, e.state)
	return e
}

// Registry exposes the underlying registry, used by tests to gather.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe mirrors one Context Store snapshot into the gauges.
func (e *Exporter) Observe(snap map[string]kernel.Context) {
	e.state.Reset()
	for name, c := range snap {
		e.totalRun.WithLabelValues(name).Set(float64(c.TotalRun))
		e.successRun.WithLabelValues(name).Set(float64(c.SuccessRun))
		e.state.WithLabelValues(name, string(c.State)).Set(1)
	}
}

// Run serves /metrics on the configured address, refreshing the gauges
// from store on every interval tick until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context, store *ctxstore.Store, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: e.addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Observe(store.Snapshot())
		case err := <-errCh:
			return err
		case <-ctx.Done():
			e.Observe(store.Snapshot())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return nil
		}
	}
}

// Package metrics exposes prometheus counters for spawns, claims and commands.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	spawns   *prometheus.CounterVec
	claims   *prometheus.CounterVec
	mints    prometheus.Counter
	commands *prometheus.CounterVec
	render   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		spawns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "countrydex",
			Name:      "spawns_total",
			Help:      "Spawn attempts by result.",
		}, []string{"result"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "countrydex",
			Name:      "claims_total",
			Help:      "Catch attempts by outcome.",
		}, []string{"outcome"}),
		mints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "countrydex",
			Name:      "instances_minted_total",
			Help:      "Instances created by catches and admin grants.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "countrydex",
			Name:      "commands_total",
			Help:      "Commands handled by name.",
		}, []string{"command"}),
		render: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "countrydex",
			Name:      "card_render_seconds",
			Help:      "Time spent rendering cards.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
	m.registry.MustRegister(m.spawns, m.claims, m.mints, m.commands, m.render)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Spawn(result string) {
	if m == nil {
		return
	}
	m.spawns.WithLabelValues(result).Inc()
}

func (m *Metrics) Claim(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Minted(n int) {
	if m == nil {
		return
	}
	m.mints.Add(float64(n))
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.render.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package metrics exposes controller activity as Prometheus metrics. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Records    prometheus.Gauge
	Verified   prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subguard",
			Name:      "operations_total",
			Help:      "Controller operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "subguard",
			Name:      "operation_duration_seconds",
			Help:      "Controller operation latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
		Records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "subguard",
			Name:      "records",
			Help:      "Records in the canonical set.",
		}),
		Verified: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "subguard",
			Name:      "records_verified",
			Help:      "Records whose amount has been disclosed.",
		}),
	}
}

func (m *Metrics) Observe(op, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.Duration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) SetRecords(total, verified int) {
	if m == nil {
		return
	}
	m.Records.Set(float64(total))
	m.Verified.Set(float64(verified))
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package metrics exposes optional Prometheus instrumentation for the
// update loop. All Recorder methods are safe on a nil receiver so callers
// never have to guard on whether metrics are enabled.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aqwidget/pkg/logx"
)

const defaultAddr = "127.0.0.1:9390"

type Recorder struct {
	registry *prometheus.Registry

	cyclesTotal    prometheus.Counter
	cycleFailures  prometheus.Counter
	cycleDuration  prometheus.Histogram
	refreshTotal   prometheus.Counter
	refreshMissing prometheus.Counter
	lastAQI        *prometheus.GaugeVec

	srv *http.Server
	log logx.Logger
}

func New(log logx.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: reg,
		log:      log.With(logx.String("component", "metrics")),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqwidget_cycles_total",
			Help: "Completed update cycles.",
		}),
		cycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqwidget_cycle_failures_total",
			Help: "Update cycles whose update command exited non-zero or failed to start.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aqwidget_cycle_duration_seconds",
			Help:    "Wall time of one update cycle.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqwidget_refresh_total",
			Help: "Successful Rainmeter refresh invocations.",
		}),
		refreshMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqwidget_refresh_skipped_total",
			Help: "Cycles where no Rainmeter executable was found.",
		}),
		lastAQI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aqwidget_aqi",
			Help: "Most recent AQI per location.",
		}, []string{"location"}),
	}
	reg.MustRegister(
		r.cyclesTotal, r.cycleFailures, r.cycleDuration,
		r.refreshTotal, r.refreshMissing, r.lastAQI,
	)
	return r
}

func (r *Recorder) CycleDone(d time.Duration, failed bool) {
	if r == nil {
		return
	}
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(d.Seconds())
	if failed {
		r.cycleFailures.Inc()
	}
}

func (r *Recorder) RefreshDone() {
	if r != nil {
		r.refreshTotal.Inc()
	}
}

func (r *Recorder) RefreshSkipped() {
	if r != nil {
		r.refreshMissing.Inc()
	}
}

func (r *Recorder) SetAQI(location string, value int) {
	if r != nil {
		r.lastAQI.WithLabelValues(location).Set(float64(value))
	}
}

// Serve starts the /metrics listener and returns once it is accepting
// connections. The listener shuts down when Close is called.
func (r *Recorder) Serve(addr string) error {
	if r == nil {
		return nil
	}
	if addr == "" {
		addr = defaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("metrics listener stopped", logx.Err(err))
		}
	}()
	r.log.Info("metrics listening", logx.String("addr", ln.Addr().String()))
	return nil
}

func (r *Recorder) Close(ctx context.Context) error {
	if r == nil || r.srv == nil {
		return nil
	}
	return r.srv.Shutdown(ctx)
}

// Package prometheus provides a sluice.MetricsProvider backed by
// Prometheus client_golang collectors.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zoobzio/sluice"
)

// Provider records adapter lifecycle and watch metrics.
type Provider struct {
	state    *prometheus.GaugeVec
	loads    *prometheus.CounterVec
	loadTime *prometheus.HistogramVec
	polls    *prometheus.CounterVec
	pollTime prometheus.Histogram
	changes  prometheus.Counter
}

var _ sluice.MetricsProvider = (*Provider)(nil)

// New creates a Provider and registers its collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on promhttp.Handler.
func New(reg prometheus.Registerer) (*Provider, error) {
	p := &Provider{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sluice_adapter_runs",
			Help: "Adapter runs currently in each state.",
		}, []string{"state"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sluice_loads_total",
			Help: "Completed lifecycles by outcome and failing stage.",
		}, []string{"outcome", "stage"}),
		loadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sluice_load_duration_seconds",
			Help:    "Lifecycle duration from validation to completion.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sluice_watch_polls_total",
			Help: "Watch polls by outcome.",
		}, []string{"outcome"}),
		pollTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sluice_watch_poll_duration_seconds",
			Help:    "Watch poll duration.",
			Buckets: prometheus.DefBuckets,
		}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sluice_changes_detected_total",
			Help: "Remote changes detected by watch polls.",
		}),
	}

	for _, c := range []prometheus.Collector{p.state, p.loads, p.loadTime, p.polls, p.pollTime, p.changes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// OnStateChange implements sluice.MetricsProvider. Runs start in the
// loading state, which is counted on their first transition.
func (p *Provider) OnStateChange(from, to sluice.State) {
	if from != sluice.StateLoading {
		p.state.WithLabelValues(from.String()).Dec()
	}
	p.state.WithLabelValues(to.String()).Inc()
}

// OnLoadSuccess implements sluice.MetricsProvider.
func (p *Provider) OnLoadSuccess(_ int, d time.Duration) {
	p.loads.WithLabelValues("success", "").Inc()
	p.loadTime.WithLabelValues("success").Observe(d.Seconds())
}

// OnLoadFailure implements sluice.MetricsProvider.
func (p *Provider) OnLoadFailure(stage sluice.Stage, d time.Duration) {
	p.loads.WithLabelValues("failure", string(stage)).Inc()
	p.loadTime.WithLabelValues("failure").Observe(d.Seconds())
}

// OnPoll implements sluice.MetricsProvider.
func (p *Provider) OnPoll(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	p.polls.WithLabelValues(outcome).Inc()
	p.pollTime.Observe(d.Seconds())
}

// OnChangeDetected implements sluice.MetricsProvider.
func (p *Provider) OnChangeDetected() {
	p.changes.Inc()
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

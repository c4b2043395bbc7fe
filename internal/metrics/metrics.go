// Package metrics exposes presence counters and gauges to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radioafrica/internal/service"
)

const namespace = "radioafrica"

// Recorder holds the presence metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry       *prometheus.Registry
	heartbeats     *prometheus.CounterVec
	firstSeen      prometheus.Counter
	activeVisitors prometheus.Gauge
	totalViews     prometheus.Gauge
}

// New creates a Recorder on a private registry that also carries the Go
// runtime and process collectors.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return NewRecorder(reg)
}

// NewRecorder registers the presence metrics on reg.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	r := &Recorder{
		registry: reg,
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeats received, by result.",
		}, []string{"result"}),
		firstSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "first_seen_total",
			Help:      "Total number of visitors counted as first seen by this process.",
		}),
		activeVisitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_visitors",
			Help:      "Visitors active within the default stats window at the last refresh.",
		}),
		totalViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_views",
			Help:      "Global total_views counter at the last refresh.",
		}),
	}

	for _, c := range []prometheus.Collector{r.heartbeats, r.firstSeen, r.activeVisitors, r.totalViews} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// pre-create the label values so they export as zero
	for _, result := range []string{service.HeartbeatOK, service.HeartbeatInvalid, service.HeartbeatError} {
		r.heartbeats.WithLabelValues(result)
	}

	return r, nil
}

func (r *Recorder) ObserveHeartbeat(result string) {
	if r == nil {
		return
	}
	r.heartbeats.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveFirstSeen() {
	if r == nil {
		return
	}
	r.firstSeen.Inc()
}

// SetStats updates the visitor gauges from a stats snapshot.
func (r *Recorder) SetStats(stats service.Stats) {
	if r == nil {
		return
	}
	r.activeVisitors.Set(float64(stats.Active))
	r.totalViews.Set(float64(stats.Total))
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

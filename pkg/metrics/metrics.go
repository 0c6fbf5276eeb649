// Package metrics exposes prometheus collectors for museum sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the museum collectors. A nil *Metrics records nothing.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	ToursStarted   prometheus.Counter
	ToursFinished  prometheus.Counter
	StopsReached   *prometheus.CounterVec
	WallHits       prometheus.Counter
	Commands       *prometheus.CounterVec
	LoadFailures   *prometheus.CounterVec
	FrameDuration  prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "museum_sessions_active",
			Help: "Number of connected visitor sessions",
		}),
		ToursStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "museum_tours_started_total",
			Help: "Guided tours started",
		}),
		ToursFinished: f.NewCounter(prometheus.CounterOpts{
			Name: "museum_tours_finished_total",
			Help: "Guided tours that reached the last stop",
		}),
		StopsReached: f.NewCounterVec(prometheus.CounterOpts{
			Name: "museum_stops_reached_total",
			Help: "Tour stop arrivals by stop code",
		}, []string{"code"}),
		WallHits: f.NewCounter(prometheus.CounterOpts{
			Name: "museum_wall_hits_total",
			Help: "Movement clamped at the walkable bounds",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "museum_commands_total",
			Help: "Visitor commands dispatched by kind",
		}, []string{"kind"}),
		LoadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "museum_stop_load_failures_total",
			Help: "Stop list loads that failed, by source",
		}, []string{"source"}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "museum_frame_duration_seconds",
			Help:    "Time spent in one session frame",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01},
		}),
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

func (m *Metrics) TourStarted() {
	if m != nil {
		m.ToursStarted.Inc()
	}
}

func (m *Metrics) TourFinished() {
	if m != nil {
		m.ToursFinished.Inc()
	}
}

func (m *Metrics) StopReached(code string) {
	if m != nil {
		m.StopsReached.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) WallHit() {
	if m != nil {
		m.WallHits.Inc()
	}
}

func (m *Metrics) Command(kind string) {
	if m != nil {
		m.Commands.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) LoadFailed(source string) {
	if m != nil {
		m.LoadFailures.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveFrame(seconds float64) {
	if m != nil {
		m.FrameDuration.Observe(seconds)
	}
}

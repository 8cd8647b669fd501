// Package metrics exposes Prometheus instruments for the sync session.
// A nil *SyncMetrics is valid and records nothing, so tests and tools can
// run a session without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trip_planner"

// Push results.
const (
	PushOK     = "ok"
	PushFailed = "failed"
)

// Remote change outcomes.
const (
	ChangeApplied = "applied"
	ChangeEcho    = "echo"
)

// SyncMetrics groups the collectors updated by service.TripSession.
type SyncMetrics struct {
	pushes         *prometheus.CounterVec
	remoteChanges  *prometheus.CounterVec
	codeCollisions prometheus.Counter
	connected      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// Registering twice on the same registry panics, as with any collector.
func New(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pushes_total",
			Help:      "Whole-document pushes to the remote store, by result.",
		}, []string{"result"}),
		remoteChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "remote_changes_total",
			Help:      "Documents received from the remote feed, by outcome.",
		}, []string{"outcome"}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "code_collisions_total",
			Help:      "Generated join codes that were already in use.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "connected",
			Help:      "1 while the session is connected to a shared trip.",
		}),
	}
	reg.MustRegister(m.pushes, m.remoteChanges, m.codeCollisions, m.connected)
	return m
}

func (m *SyncMetrics) Push(result string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) RemoteChange(outcome string) {
	if m == nil {
		return
	}
	m.remoteChanges.WithLabelValues(outcome).Inc()
}

func (m *SyncMetrics) CodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

// SetConnected flips the connected gauge.
func (m *SyncMetrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

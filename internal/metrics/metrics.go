// Package metrics tracks daemon counters. Counters are atomics so a slow
// notification send never blocks a health read, and every counter is
// mirrored into a prometheus registry for scraping.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks monotonically increasing lifecycle counters.
type Metrics struct {
	startedAt time.Time

	welcomed            atomic.Int64
	warned              atomic.Int64
	removed             atomic.Int64
	notificationsSent   atomic.Int64
	notificationsFailed atomic.Int64
	providerErrors      atomic.Int64
	stateSaves          atomic.Int64
	stateLoads          atomic.Int64

	registry *prometheus.Registry
	counters map[string]prometheus.Counter
}

// New creates a Metrics instance with its own prometheus registry.
func New() *Metrics {
	m := &Metrics{
		startedAt: time.Now().UTC(),
		registry:  prometheus.NewRegistry(),
		counters:  make(map[string]prometheus.Counter),
	}
	for _, name := range []string{
		"users_welcomed_total",
		"users_warned_total",
		"users_removed_total",
		"notifications_sent_total",
		"notifications_failed_total",
		"provider_errors_total",
		"state_saves_total",
		"state_loads_total",
	} {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guardian",
			Name:      name,
		})
		m.registry.MustRegister(c)
		m.counters[name] = c
	}
	return m
}

// Registry returns the prometheus registry backing the counters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// StartedAt returns the process start timestamp.
func (m *Metrics) StartedAt() time.Time { return m.startedAt }

func (m *Metrics) inc(a *atomic.Int64, name string) {
	a.Add(1)
	m.counters[name].Inc()
}

func (m *Metrics) IncWelcomed()            { m.inc(&m.welcomed, "users_welcomed_total") }
func (m *Metrics) IncWarned()              { m.inc(&m.warned, "users_warned_total") }
func (m *Metrics) IncRemoved()             { m.inc(&m.removed, "users_removed_total") }
func (m *Metrics) IncNotificationsSent()   { m.inc(&m.notificationsSent, "notifications_sent_total") }
func (m *Metrics) IncNotificationsFailed() { m.inc(&m.notificationsFailed, "notifications_failed_total") }
func (m *Metrics) IncProviderErrors()      { m.inc(&m.providerErrors, "provider_errors_total") }
func (m *Metrics) IncStateSaves()          { m.inc(&m.stateSaves, "state_saves_total") }
func (m *Metrics) IncStateLoads()          { m.inc(&m.stateLoads, "state_loads_total") }

// Snapshot is a serializable point-in-time view of the counters.
type Snapshot struct {
	StartedAt           time.Time            `json:"started_at"`
	Welcomed            int64                `json:"users_welcomed"`
	Warned              int64                `json:"users_warned"`
	Removed             int64                `json:"users_removed"`
	NotificationsSent   int64                `json:"notifications_sent"`
	NotificationsFailed int64                `json:"notifications_failed"`
	ProviderErrors      int64                `json:"provider_errors"`
	StateSaves          int64                `json:"state_saves"`
	StateLoads          int64                `json:"state_loads"`
	Heartbeats          map[string]time.Time `json:"heartbeats,omitempty"`
}

// Snapshot returns a consistent point-in-time view of the counters.
// Heartbeats are owned by the scheduler and merged in by the caller.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		StartedAt:           m.startedAt,
		Welcomed:            m.welcomed.Load(),
		Warned:              m.warned.Load(),
		Removed:             m.removed.Load(),
		NotificationsSent:   m.notificationsSent.Load(),
		NotificationsFailed: m.notificationsFailed.Load(),
		ProviderErrors:      m.providerErrors.Load(),
		StateSaves:          m.stateSaves.Load(),
		StateLoads:          m.stateLoads.Load(),
	}
}

// Package metrics wires up the relay's operational gauges and counters via
// prometheus/client_golang: basic service health (rooms, sessions, queue
// depth, event throughput), not business or usage analytics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the relay and playback coordinator touch.
type Metrics struct {
	RoomsActive       prometheus.Gauge
	SessionsConnected prometheus.Gauge
	QueueDepth        *prometheus.GaugeVec
	EventsHandled     *prometheus.CounterVec
	EventErrors       *prometheus.CounterVec
	AppendsRejected   prometheus.Counter
	BufferFailures    *prometheus.CounterVec
}

// New registers every collector against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "rooms_active",
			Help:      "Number of rooms with at least one connected session.",
		}),
		SessionsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "sessions_connected",
			Help:      "Number of currently connected websocket sessions across all rooms.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "queue_depth",
			Help:      "Number of entries currently queued, by room.",
		}, []string{"room"}),
		EventsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "events_handled_total",
			Help:      "Number of inbound events handled, by event name.",
		}, []string{"event"}),
		EventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "event_errors_total",
			Help:      "Number of inbound events that returned an error, by event name.",
		}, []string{"event"}),
		AppendsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "syng",
			Subsystem: "relay",
			Name:      "appends_rejected_total",
			Help:      "Number of append requests rejected by the end-time cutoff guard.",
		}),
		BufferFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syng",
			Subsystem: "playback",
			Name:      "buffer_failures_total",
			Help:      "Number of buffer operations that ended in failure, by source.",
		}, []string{"source"}),
	}
}

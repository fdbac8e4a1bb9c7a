package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors. The recording methods
// and Handler accept a nil *Metrics and then record nothing; the collector
// accessors require a value built by New.
type Metrics struct {
	registry *prometheus.Registry

	connections prometheus.Gauge
	members     prometheus.Gauge
	joins       *prometheus.CounterVec
	relayed     *prometheus.CounterVec
	deliveries  prometheus.Counter
	dropped     prometheus.Counter
	discarded   *prometheus.CounterVec
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "room_members",
			Help:      "Connections that have joined a room.",
		}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "joins_total",
			Help:      "Join requests by outcome.",
		}, []string{"outcome"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_relayed_total",
			Help:      "Events fanned out, by inbound event kind.",
		}, []string{"event"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "deliveries_total",
			Help:      "Messages enqueued to client send buffers.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "deliveries_dropped_total",
			Help:      "Messages dropped because a send buffer was full.",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_discarded_total",
			Help:      "Inbound events discarded without delivery, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.connections, m.members, m.joins, m.relayed,
		m.deliveries, m.dropped, m.discarded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

// JoinAccepted records a successful join.
func (m *Metrics) JoinAccepted() {
	if m != nil {
		m.joins.WithLabelValues("accepted").Inc()
		m.members.Inc()
	}
}

// JoinRejected records a join refused for a duplicate username.
func (m *Metrics) JoinRejected() {
	if m != nil {
		m.joins.WithLabelValues("username_exists").Inc()
	}
}

func (m *Metrics) MemberLeft() {
	if m != nil {
		m.members.Dec()
	}
}

func (m *Metrics) Relayed(event string) {
	if m != nil {
		m.relayed.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) Delivered() {
	if m != nil {
		m.deliveries.Inc()
	}
}

func (m *Metrics) Dropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

// Discarded records an inbound event that reached nobody.
func (m *Metrics) Discarded(reason string) {
	if m != nil {
		m.discarded.WithLabelValues(reason).Inc()
	}
}

// JoinsCounter returns the join counter for outcome.
func (m *Metrics) JoinsCounter(outcome string) prometheus.Counter {
	return m.joins.WithLabelValues(outcome)
}

// RelayedCounter returns the relay counter for an inbound event kind.
func (m *Metrics) RelayedCounter(event string) prometheus.Counter {
	return m.relayed.WithLabelValues(event)
}

// DiscardedCounter returns the discard counter for reason.
func (m *Metrics) DiscardedCounter(reason string) prometheus.Counter {
	return m.discarded.WithLabelValues(reason)
}

func (m *Metrics) MembersGauge() prometheus.Gauge     { return m.members }
func (m *Metrics) ConnectionsGauge() prometheus.Gauge { return m.connections }
func (m *Metrics) DeliveriesCounter() prometheus.Counter {
	return m.deliveries
}
func (m *Metrics) DroppedCounter() prometheus.Counter { return m.dropped }

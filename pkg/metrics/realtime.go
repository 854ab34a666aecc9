package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics tracks websocket connections and emitted events.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	emitted     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewRealtimeMetrics registers the realtime metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Open websocket connections on this instance.",
	})
	emitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_emitted_total",
		Help: "Events delivered to local sockets.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Events dropped because a socket send buffer was full.",
	}, []string{"event"})
	reg.MustRegister(connections, emitted, dropped)
	return &RealtimeMetrics{
		connections: connections,
		emitted:     emitted,
		dropped:     dropped,
	}
}

func (r *RealtimeMetrics) ConnectionOpened() {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Inc()
}

func (r *RealtimeMetrics) ConnectionClosed() {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Dec()
}

// Emitted adds n deliveries of the named event.
func (r *RealtimeMetrics) Emitted(event string, n int) {
	if r == nil || r.emitted == nil || n <= 0 {
		return
	}
	r.emitted.WithLabelValues(normalizeLabel(event)).Add(float64(n))
}

func (r *RealtimeMetrics) Dropped(event string) {
	if r == nil || r.dropped == nil {
		return
	}
	r.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}

package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "multiplayer_ws_connections",
			Help: "Current number of open websocket connections.",
		},
	)
	wsMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "multiplayer_ws_room_members",
			Help: "Current number of authenticated connections across all rooms.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "multiplayer_ws_rooms",
			Help: "Number of rooms in the registry. Rooms are never removed.",
		},
	)
	wsEventsQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiplayer_ws_events_queued_total",
			Help: "Events queued onto connection outboxes, by kind.",
		},
		[]string{"kind"},
	)
	wsEventsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multiplayer_ws_events_rejected_total",
			Help: "Events refused by a closed or overflowed outbox.",
		},
	)
	wsFramesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multiplayer_ws_frames_written_total",
			Help: "Binary frames written to clients by flush loops.",
		},
	)
	wsFramesIgnored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiplayer_ws_frames_ignored_total",
			Help: "Inbound frames dropped without effect, by reason.",
		},
		[]string{"reason"},
	)
	wsOverflowDisconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multiplayer_ws_overflow_disconnects_total",
			Help: "Connections closed because their outbox overflowed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsConnections,
		wsMembers,
		wsRooms,
		wsEventsQueued,
		wsEventsRejected,
		wsFramesWritten,
		wsFramesIgnored,
		wsOverflowDisconnects,
	)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func incMembers() {
	wsMembers.Inc()
}

func decMembers() {
	wsMembers.Dec()
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addQueued(kind string, count int) {
	if count > 0 {
		wsEventsQueued.WithLabelValues(kind).Add(float64(count))
	}
}

func addRejected(count int) {
	if count > 0 {
		wsEventsRejected.Add(float64(count))
	}
}

func addWritten(count int) {
	if count > 0 {
		wsFramesWritten.Add(float64(count))
	}
}

func incIgnored(reason string) {
	wsFramesIgnored.WithLabelValues(reason).Inc()
}

func incOverflowDisconnects() {
	wsOverflowDisconnects.Inc()
}

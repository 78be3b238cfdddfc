// Package metrics defines Prometheus metrics for the sync server.
//
// Metric naming follows Prometheus conventions:
//   - codesync_ prefix for all custom metrics
//   - _total suffix for counters
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SessionsActive is the number of open signal connections.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codesync_sessions_active",
			Help: "Number of connected sessions.",
		},
	)

	// RoomsActive is the number of rooms held in memory.
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codesync_rooms_active",
			Help: "Number of rooms held in memory.",
		},
	)

	// EventsTotal counts inbound client events by type.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codesync_events_total",
			Help: "Inbound client events by type.",
		},
		[]string{"type"},
	)

	// EventsRejectedTotal counts inbound events dropped before touching room state.
	EventsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codesync_events_rejected_total",
			Help: "Inbound client events dropped at the boundary, by reason.",
		},
		[]string{"reason"},
	)

	// FramesSentTotal counts frames enqueued to members by event kind.
	FramesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codesync_frames_sent_total",
			Help: "Frames enqueued for delivery, by event kind.",
		},
		[]string{"kind"},
	)

	// FramesDroppedTotal counts frames that hit a full send buffer.
	FramesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesync_frames_dropped_total",
			Help: "Frames dropped because a member's send buffer was full.",
		},
	)

	// RoomsEvictedTotal counts rooms removed after staying empty past the TTL.
	RoomsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codesync_rooms_evicted_total",
			Help: "Rooms evicted after staying empty past the TTL.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		RoomsActive,
		EventsTotal,
		EventsRejectedTotal,
		FramesSentTotal,
		FramesDroppedTotal,
		RoomsEvictedTotal,
	)
}

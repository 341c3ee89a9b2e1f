package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutpool_api_requests_total",
			Help: "Total REST API requests issued by the client",
		},
		[]string{"method", "status"},
	)

	// Realtime metrics
	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutpool_realtime_events_total",
			Help: "Total realtime events received, by event type",
		},
		[]string{"type"},
	)

	RealtimeEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoutpool_realtime_events_dropped_total",
			Help: "Realtime events dropped because a subscriber was not keeping up",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoutpool_chat_messages_sent_total",
			Help: "Total chat messages emitted over the realtime channel",
		},
	)

	NotificationsMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoutpool_notifications_marked_read_total",
			Help: "Total notifications flipped to read by the client",
		},
	)
)

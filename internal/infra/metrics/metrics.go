// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	PlaybackMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cast_playback_mode",
		Help: "Current playback mode (0=idle, 1=queue, 2=live stream)",
	})
	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cast_queue_length",
		Help: "Number of pending tracks",
	})
	Volume = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cast_volume_ratio",
		Help: "Playback volume as a fraction of full scale",
	})
	Listeners = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cast_listeners",
		Help: "Non-bot members in the designated voice channel",
	})
	NotificationSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cast_notification_subscribers",
		Help: "Active notification subscribers",
	})
)

// Counters
var (
	TracksStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cast_tracks_started_total",
		Help: "Total queued tracks that started rendering",
	})
	StreamsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cast_streams_started_total",
		Help: "Total live streams that started rendering",
	})
	FailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_failures_total",
		Help: "Total reported failures by kind",
	}, []string{"kind"})
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_commands_total",
		Help: "Total commands by source and name",
	}, []string{"source", "command"})
	CommandsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cast_commands_throttled_total",
		Help: "Chat commands dropped by the rate limiter",
	})
	PresenceActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_presence_actions_total",
		Help: "Automatic joins and leaves driven by channel presence",
	}, []string{"action"})
)

// Histograms
var (
	ResolveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cast_resolve_duration_ms",
		Help:    "Off-loop call duration in milliseconds by stage",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
	}, []string{"stage"})
)

// Package metrics defines the Prometheus instrumentation for the
// frame-streaming pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle metrics
var (
	// ActiveSessions tracks the number of live streaming sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_active_sessions",
			Help: "Number of live streaming sessions",
		},
	)

	// SessionsTotal tracks session registrations by result (accepted/rejected)
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_sessions_total",
			Help: "Total session registration attempts by result (accepted/rejected)",
		},
		[]string{"result"},
	)

	// SessionsReaped tracks sessions force-closed by the idle reaper
	SessionsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_sessions_reaped_total",
			Help: "Total sessions force-closed due to idle timeout",
		},
	)

	// SessionDuration tracks how long sessions stay connected
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stream_session_duration_seconds",
			Help:    "Session connection duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
	)

	// CapacityUtilization tracks global connection cap utilization (0-100%)
	CapacityUtilization = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_capacity_utilization_percent",
			Help: "Global connection cap utilization (0-100%)",
		},
	)
)

// Connection limit metrics
var (
	// ConnectionsRejected tracks rejected connection attempts by reason
	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_connections_rejected_total",
			Help: "Total connections rejected by reason (global_limit/per_ip_limit/rate_limit)",
		},
		[]string{"reason"},
	)
)

// Frame processing metrics
var (
	// FramesProcessed tracks frames that produced a result
	FramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_processed_total",
			Help: "Total frames successfully transformed and sent back",
		},
	)

	// FramesDropped tracks frames evicted from a full queue
	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_dropped_total",
			Help: "Total frames evicted from a full queue (oldest-first)",
		},
	)

	// FramesFailed tracks frames abandoned due to decode/transform/encode errors
	FramesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_frames_failed_total",
			Help: "Total frames abandoned by failure stage (decode/transform/encode/send)",
		},
		[]string{"stage"},
	)

	// FramesSkipped tracks frames skipped because no style reference was set
	FramesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_skipped_total",
			Help: "Total frames skipped because the session had no style reference",
		},
	)

	// FrameProcessingDuration tracks end-to-end transform step latency
	FrameProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stream_frame_processing_duration_seconds",
			Help:    "Frame transform step duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// FrameLatencyOverruns tracks frames that exceeded the target latency budget
	FrameLatencyOverruns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frame_latency_overruns_total",
			Help: "Total frames whose processing exceeded the target latency (budget is metrics-only)",
		},
	)

	// QueueDepth tracks the current total depth across all frame queues
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_queue_depth",
			Help: "Current total queued frames across all sessions",
		},
	)
)

// Outbound path metrics
var (
	// ResultsDropped tracks frame results dropped because the client write
	// buffer was full
	ResultsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_results_dropped_total",
			Help: "Total frame results dropped due to a slow client",
		},
	)

	// MessageSendDuration tracks outbound WebSocket write duration
	MessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stream_message_send_duration_seconds",
			Help:    "Outbound WebSocket message write duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)
)

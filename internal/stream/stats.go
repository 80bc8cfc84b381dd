package stream

import "time"

// Stats is a point-in-time view of cross-session counters.
type Stats struct {
	ActiveSessions          int     `json:"active_sessions"`
	TotalFramesProcessed    int64   `json:"total_frames_processed"`
	AverageProcessingTimeMs float64 `json:"average_processing_time_ms"`
}

// StatsAggregator reads cross-session counters for external reporting. It
// never mutates anything and is safe to call concurrently with the rest of
// the pipeline.
type StatsAggregator struct {
	registry *Registry
}

// NewStatsAggregator creates an aggregator over the given registry.
func NewStatsAggregator(registry *Registry) *StatsAggregator {
	return &StatsAggregator{registry: registry}
}

// Collect computes the current stats. The average is weighted by frames
// processed per session and guarded against division by zero.
func (a *StatsAggregator) Collect() Stats {
	sessions := a.registry.Snapshot()

	var totalFrames int64
	var totalTime time.Duration
	for _, s := range sessions {
		totalFrames += s.FramesProcessed()
		totalTime += s.ProcessingTime()
	}

	stats := Stats{
		ActiveSessions:       len(sessions),
		TotalFramesProcessed: totalFrames,
	}
	if totalFrames > 0 {
		stats.AverageProcessingTimeMs = float64(totalTime.Milliseconds()) / float64(totalFrames)
	}
	return stats
}

// Package stream implements the real-time frame-streaming core.
//
// A Registry owns all live sessions and the global connection cap. Each
// session runs two goroutines: a SessionController draining the inbound
// channel and a TransformWorker draining the session's bounded FrameQueue
// through the external transform. The IdleReaper force-closes silent
// sessions; the StatsAggregator exposes read-only cross-session counters.
// Everything except the cap counter is partitioned per session.
package stream

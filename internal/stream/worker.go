package stream

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
	"github.com/JaiminPatel345/glowup-sub000/internal/protocol"
	"github.com/JaiminPatel345/glowup-sub000/internal/transform"
)

// WorkerState is the lifecycle phase of a TransformWorker.
type WorkerState int32

const (
	WorkerStarting WorkerState = iota
	WorkerRunning
	WorkerDraining
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStarting:
		return "starting"
	case WorkerRunning:
		return "running"
	case WorkerDraining:
		return "draining"
	case WorkerStopped:
		return "stopped"
	}
	return "unknown"
}

// defaultPollInterval bounds how long a dequeue waits before re-checking
// liveness. It exists to notice teardown promptly, not for correctness.
const defaultPollInterval = time.Second

// TransformWorker is the sole consumer of one session's frame queue. It
// drains tasks through the external transform strictly sequentially, so a
// session's results always come back in the order of the frames that
// produced them. Per-frame failures are absorbed; only queue close or
// cancellation stops the worker.
type TransformWorker struct {
	session       *Session
	registry      *Registry
	transformer   transform.Transformer
	clock         clockwork.Clock
	pollInterval  time.Duration
	targetLatency time.Duration

	state atomic.Int32
	done  chan struct{}
}

// NewTransformWorker creates the worker for a session. targetLatency is a
// metrics-only budget; zero disables overrun tracking.
func NewTransformWorker(session *Session, registry *Registry, transformer transform.Transformer, clock clockwork.Clock, targetLatency time.Duration) *TransformWorker {
	return &TransformWorker{
		session:       session,
		registry:      registry,
		transformer:   transformer,
		clock:         clock,
		pollInterval:  defaultPollInterval,
		targetLatency: targetLatency,
		done:          make(chan struct{}),
	}
}

// State returns the worker's current lifecycle phase.
func (w *TransformWorker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done is closed once the worker has fully stopped.
func (w *TransformWorker) Done() <-chan struct{} {
	return w.done
}

// Run drains the session's queue until it closes or ctx is cancelled. An
// in-flight transform is allowed to finish; the transform itself makes no
// cancellation promises.
func (w *TransformWorker) Run(ctx context.Context) {
	defer close(w.done)
	defer w.state.Store(int32(WorkerStopped))

	ctx = loggingContext(ctx, w.session.ID)
	w.state.Store(int32(WorkerRunning))

	for {
		task, result := w.session.Queue().Dequeue(ctx, w.pollInterval, w.clock)
		switch result {
		case DequeueOK:
			w.processTask(ctx, task)
		case DequeueTimeout:
			// Idle poll; loop and re-check liveness.
			if ctx.Err() != nil {
				w.state.Store(int32(WorkerDraining))
				return
			}
		case DequeueClosed, DequeueCancelled:
			w.state.Store(int32(WorkerDraining))
			slog.DebugContext(ctx, "Worker draining", "reason", result)
			return
		}
	}
}

// processTask runs one frame through decode, transform, scoring, and encode.
// Every failure is absorbed here: the frame is abandoned, the worker lives.
func (w *TransformWorker) processTask(ctx context.Context, task FrameTask) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Transform step panic recovered", "frame_id", task.ID, "panic", r)
			metrics.FramesFailed.WithLabelValues("transform").Inc()
		}
	}()

	style := w.session.StyleReference()
	if style == nil {
		// Precondition not yet met; the frame is skipped, not failed.
		metrics.FramesSkipped.Inc()
		slog.DebugContext(ctx, "Frame skipped, no style reference set", "frame_id", task.ID)
		return
	}

	input, err := frame.Decode(task.Data)
	if err != nil {
		metrics.FramesFailed.WithLabelValues("decode").Inc()
		slog.WarnContext(ctx, "Frame decode failed", "frame_id", task.ID, "error", err)
		return
	}

	start := w.clock.Now()
	output, err := w.transformer.Transform(ctx, input, style, w.session.ColorReference())
	elapsed := w.clock.Since(start)
	if err != nil {
		metrics.FramesFailed.WithLabelValues("transform").Inc()
		slog.WarnContext(ctx, "Transform failed",
			"frame_id", task.ID,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	score := transform.QualityScore(output)

	encoded, err := frame.EncodeBase64(output)
	if err != nil {
		metrics.FramesFailed.WithLabelValues("encode").Inc()
		slog.WarnContext(ctx, "Result encode failed", "frame_id", task.ID, "error", err)
		return
	}

	w.registry.RecordCompletion(w.session.ID, elapsed)
	metrics.FramesProcessed.Inc()
	metrics.FrameProcessingDuration.Observe(elapsed.Seconds())
	if w.targetLatency > 0 && elapsed > w.targetLatency {
		metrics.FrameLatencyOverruns.Inc()
	}

	reply := protocol.FrameResult(task.ID, encoded, float64(elapsed.Milliseconds()), score)
	if !w.session.Send(reply) {
		metrics.FramesFailed.WithLabelValues("send").Inc()
		slog.DebugContext(ctx, "Result dropped, client too slow", "frame_id", task.ID)
	}
}

package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
)

// ReferenceKind selects which session reference image an update targets.
type ReferenceKind string

const (
	ReferenceStyle ReferenceKind = "style"
	ReferenceColor ReferenceKind = "color"
)

const sendBufferSize = 16

// Session is one live streaming connection: its queue, its references, and
// its counters. The registry owns the lifecycle; mutation of per-session
// state is issued only by the session's own controller and worker, while the
// reaper and stats read through atomics.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	channel Channel
	queue   *FrameQueue
	clock   clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc

	lastActivity    atomic.Int64 // unix nanos, never decreases
	framesProcessed atomic.Int64
	processingTime  atomic.Int64 // cumulative, nanos

	styleRef atomic.Pointer[frame.Frame]
	colorRef atomic.Pointer[frame.Frame]

	outbound  chan []byte
	writeDone chan struct{}
	closeOnce sync.Once
}

func newSession(channel Channel, sessionID, userID string, queueCapacity int, clock clockwork.Clock) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:          sessionID,
		UserID:      userID,
		ConnectedAt: clock.Now(),
		channel:     channel,
		queue:       NewFrameQueue(queueCapacity),
		clock:       clock,
		ctx:         ctx,
		cancel:      cancel,
		outbound:    make(chan []byte, sendBufferSize),
		writeDone:   make(chan struct{}),
	}
	s.lastActivity.Store(clock.Now().UnixNano())
	go s.writePump()
	return s
}

// Context is cancelled when the session is closed or unregistered. The
// session's controller and worker run under it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Queue returns the session's bounded frame queue.
func (s *Session) Queue() *FrameQueue {
	return s.queue
}

// Touch advances lastActivity to now. The timestamp never moves backwards,
// even with a fake clock standing still.
func (s *Session) Touch() {
	now := s.clock.Now().UnixNano()
	for {
		prev := s.lastActivity.Load()
		if now <= prev || s.lastActivity.CompareAndSwap(prev, now) {
			return
		}
	}
}

// LastActivity returns the time of the most recent client message.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// FramesProcessed returns the number of frames that produced a result.
func (s *Session) FramesProcessed() int64 {
	return s.framesProcessed.Load()
}

// ProcessingTime returns the cumulative transform time across all processed
// frames.
func (s *Session) ProcessingTime() time.Duration {
	return time.Duration(s.processingTime.Load())
}

func (s *Session) recordCompletion(d time.Duration) {
	s.framesProcessed.Add(1)
	s.processingTime.Add(int64(d))
}

// SetReference updates one of the session's reference images. A nil frame
// clears the reference.
func (s *Session) SetReference(kind ReferenceKind, f *frame.Frame) {
	switch kind {
	case ReferenceColor:
		s.colorRef.Store(f)
	default:
		s.styleRef.Store(f)
	}
}

// StyleReference returns the current style reference, or nil if unset.
func (s *Session) StyleReference() *frame.Frame {
	return s.styleRef.Load()
}

// ColorReference returns the current color reference, or nil if unset.
func (s *Session) ColorReference() *frame.Frame {
	return s.colorRef.Load()
}

// Send queues an outbound message without blocking. A full buffer means the
// client is too slow to keep up; the message is dropped and the client
// notices the gap through its own timeout, same as a failed transform.
func (s *Session) Send(data []byte) bool {
	select {
	case s.outbound <- data:
		return true
	default:
		metrics.ResultsDropped.Inc()
		return false
	}
}

// writePump is the session's single channel writer. It drains the outbound
// buffer until the session closes.
func (s *Session) writePump() {
	defer close(s.writeDone)
	for {
		select {
		case data := <-s.outbound:
			start := s.clock.Now()
			if err := s.channel.Send(data); err != nil {
				slog.Debug("Session write failed", "session_id", s.ID, "error", err)
				return
			}
			metrics.MessageSendDuration.Observe(s.clock.Since(start).Seconds())
		case <-s.ctx.Done():
			return
		}
	}
}

// Close tears the session down: cancels its controller and worker, closes
// the queue, and sends a close frame. Idempotent and safe from any
// goroutine.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.cancel()
		s.queue.Close()
		if err := s.channel.Close(code, reason); err != nil {
			slog.Debug("Session channel close failed", "session_id", s.ID, "error", err)
		}
	})
}

package stream

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
	"github.com/JaiminPatel345/glowup-sub000/internal/logging"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
	"github.com/JaiminPatel345/glowup-sub000/internal/protocol"
)

func loggingContext(ctx context.Context, sessionID string) context.Context {
	return logging.WithSessionID(ctx, sessionID)
}

// SessionController is the per-session control plane: a serialized loop
// pulling one message at a time off the channel and dispatching it. The loop
// ends only when the channel breaks; a bad message is answered and forgotten.
type SessionController struct {
	session  *Session
	registry *Registry
	clock    clockwork.Clock
}

// NewSessionController creates the controller for a session.
func NewSessionController(session *Session, registry *Registry, clock clockwork.Clock) *SessionController {
	return &SessionController{session: session, registry: registry, clock: clock}
}

// Run drains the inbound channel until it closes or errors. The returned
// error is always a channel error; per-message failures never escape.
func (c *SessionController) Run(ctx context.Context) error {
	ctx = loggingContext(ctx, c.session.ID)

	for {
		data, err := c.session.channel.Receive()
		if err != nil {
			if ctx.Err() != nil {
				// Session was closed on purpose; the receive error is
				// just the channel unblocking.
				return nil
			}
			slog.InfoContext(ctx, "Channel closed", "error", err)
			return errors.ChannelError("receive failed", err)
		}

		c.session.Touch()
		c.dispatch(ctx, data)
	}
}

func (c *SessionController) dispatch(ctx context.Context, data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		streamErr := errors.AsStreamError(err)
		slog.DebugContext(ctx, "Rejected message", "error", streamErr)
		c.session.Send(protocol.ErrorMessage(streamErr.Message, streamErr.Retryable()))
		return
	}

	switch m := msg.(type) {
	case protocol.SetStyleImage:
		c.handleSetStyleImage(ctx, m)
	case protocol.SetColorImage:
		c.handleSetColorImage(ctx, m)
	case protocol.ProcessFrame:
		c.handleProcessFrame(ctx, m)
	case protocol.Ping:
		c.session.Send(protocol.Pong())
	}
}

func (c *SessionController) handleSetStyleImage(ctx context.Context, msg protocol.SetStyleImage) {
	img, err := frame.DecodeBase64(msg.ImageData)
	if err != nil {
		slog.WarnContext(ctx, "Invalid style image", "error", err)
		c.session.Send(protocol.ErrorMessage("invalid style image", true))
		return
	}

	c.registry.UpdateReference(c.session.ID, ReferenceStyle, img)
	slog.InfoContext(ctx, "Style reference updated", "width", img.Width(), "height", img.Height())
	c.session.Send(protocol.StyleImageSet(true))
}

func (c *SessionController) handleSetColorImage(ctx context.Context, msg protocol.SetColorImage) {
	img, err := frame.DecodeBase64(msg.ImageData)
	if err != nil {
		slog.WarnContext(ctx, "Invalid color image", "error", err)
		c.session.Send(protocol.ColorImageSet(false, "invalid color image"))
		return
	}

	c.registry.UpdateReference(c.session.ID, ReferenceColor, img)
	slog.InfoContext(ctx, "Color reference updated", "width", img.Width(), "height", img.Height())
	c.session.Send(protocol.ColorImageSet(true, ""))
}

func (c *SessionController) handleProcessFrame(ctx context.Context, msg protocol.ProcessFrame) {
	raw, err := frame.DecodeBase64Bytes(msg.FrameData)
	if err != nil {
		// A single bad frame is dropped silently; the stream goes on.
		metrics.FramesFailed.WithLabelValues("decode").Inc()
		slog.DebugContext(ctx, "Dropped undecodable frame", "frame_id", msg.FrameID)
		return
	}

	evicted, accepted := c.session.Queue().TryEnqueue(FrameTask{ID: msg.FrameID, Data: raw})
	if !accepted {
		slog.DebugContext(ctx, "Frame arrived after queue close", "frame_id", msg.FrameID)
		return
	}
	if evicted {
		metrics.FramesDropped.Inc()
		slog.DebugContext(ctx, "Evicted oldest queued frame", "frame_id", msg.FrameID)
	}
	metrics.QueueDepth.Set(float64(c.session.Queue().Len()))
}

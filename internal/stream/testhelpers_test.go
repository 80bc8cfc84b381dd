package stream

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
)

// fakeChannel is an in-memory duplex channel double. Tests push inbound
// messages and inspect what the session sent back.
type fakeChannel struct {
	inbound chan []byte

	mu          sync.Mutex
	sent        [][]byte
	closed      bool
	closeCode   int
	closeReason string
	closeCh     chan struct{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		inbound: make(chan []byte, 64),
		closeCh: make(chan struct{}),
	}
}

func (c *fakeChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ChannelError("send on closed channel", nil)
	}
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeChannel) Receive() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closeCh:
		return nil, errors.ChannelError("channel closed", nil)
	}
}

func (c *fakeChannel) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.closeCh)
	return nil
}

func (c *fakeChannel) push(data []byte) {
	c.inbound <- data
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) lastCloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

// sentOfType returns decoded data payloads of all sent messages with the
// given type tag.
func (c *fakeChannel) sentOfType(t *testing.T, msgType string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []map[string]any
	for _, raw := range c.sent {
		var env struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		if env.Type == msgType {
			out = append(out, env.Data)
		}
	}
	return out
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// fakeTransformer invokes fn per call, defaulting to echoing the input.
type fakeTransformer struct {
	mu    sync.Mutex
	calls int
	fn    func(f, style, color *frame.Frame) (*frame.Frame, error)
}

func (ft *fakeTransformer) Transform(_ context.Context, f, style, color *frame.Frame) (*frame.Frame, error) {
	ft.mu.Lock()
	ft.calls++
	fn := ft.fn
	ft.mu.Unlock()

	if fn != nil {
		return fn(f, style, color)
	}
	return f, nil
}

func (ft *fakeTransformer) callCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.calls
}

func testImage(t *testing.T) *frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 90, A: 255})
		}
	}
	return &frame.Frame{Image: img}
}

// testFrameBytes returns raw JPEG bytes for a small valid frame.
func testFrameBytes(t *testing.T) []byte {
	t.Helper()
	data, err := frame.Encode(testImage(t))
	require.NoError(t, err)
	return data
}

// testFramePayload returns a base64 JPEG payload for wire messages.
func testFramePayload(t *testing.T) string {
	t.Helper()
	payload, err := frame.EncodeBase64(testImage(t))
	require.NoError(t, err)
	return payload
}

func clientMsg(t *testing.T, msgType string, data map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	require.NoError(t, err)
	return raw
}

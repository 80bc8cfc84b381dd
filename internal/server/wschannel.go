package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
)

const (
	channelWriteTimeout = 10 * time.Second
	closeGracePeriod    = time.Second
)

// wsChannel adapts a gorilla WebSocket connection to the stream.Channel
// interface. Send and Close must not race; the session's write pump is the
// only Send caller and Close is funneled through the session's closeOnce.
type wsChannel struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) Send(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(channelWriteTimeout)); err != nil {
		return errors.ChannelError("failed to set write deadline", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.ChannelError("websocket write failed", err)
	}
	return nil
}

func (c *wsChannel) Receive() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, errors.ChannelError("websocket read failed", err)
	}
	return data, nil
}

// Close sends a close frame with the given code, then tears down the
// underlying connection. Idempotent; later calls return the first result.
func (c *wsChannel) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		deadline := time.Now().Add(closeGracePeriod)
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			c.closeErr = err
		}
		if err := c.conn.Close(); err != nil && c.closeErr == nil {
			c.closeErr = err
		}
	})
	return c.closeErr
}

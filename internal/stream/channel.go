package stream

// Channel is the duplex transport a session runs over. The concrete
// implementation (WebSocket in production, in-memory fakes in tests) is
// opaque to this package.
type Channel interface {
	// Send writes one message to the client. Called only from the
	// session's write pump.
	Send(data []byte) error

	// Receive blocks until the next client message arrives or the channel
	// breaks. A non-nil error is fatal for the session.
	Receive() ([]byte, error)

	// Close terminates the connection with a close code and reason.
	// Idempotent; unblocks a pending Receive.
	Close(code int, reason string) error
}

// Package errors provides structured error handling for the frame-streaming
// pipeline, with kind classification and WebSocket close-code mapping.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of error for metrics, replies, and close codes.
type Kind string

const (
	// KindCapacity indicates the global connection cap was reached
	KindCapacity Kind = "capacity"
	// KindProtocol indicates a malformed or unknown client message
	KindProtocol Kind = "protocol"
	// KindDecode indicates an image payload that could not be decoded
	KindDecode Kind = "decode"
	// KindTransform indicates the external transform failed for one frame
	KindTransform Kind = "transform"
	// KindChannel indicates the duplex channel is broken (fatal for the session)
	KindChannel Kind = "channel"
)

// WebSocket close codes in the application range.
const (
	CloseCodeCapacity    = 4001
	CloseCodeIdleTimeout = 4002
	CloseCodeShutdown    = 4003
)

// Error represents a structured error with kind, message, and context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the client may retry on the same connection.
// Capacity and channel failures end the connection; everything else is a
// per-message condition.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindCapacity, KindChannel:
		return false
	default:
		return true
	}
}

// CloseCode returns the WebSocket close code to use when this error
// terminates a connection.
func (e *Error) CloseCode() int {
	if e.Kind == KindCapacity {
		return CloseCodeCapacity
	}
	return 1011 // internal error
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CapacityError creates an error for a connection rejected at the global cap.
func CapacityError(message string) *Error {
	return &Error{Kind: KindCapacity, Message: message}
}

// ProtocolError creates an error for a malformed or unrecognized message.
func ProtocolError(message string) *Error {
	return &Error{Kind: KindProtocol, Message: message}
}

// DecodeError creates an error for an undecodable image payload.
func DecodeError(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Cause: cause}
}

// TransformError creates an error for a failed transform invocation.
func TransformError(message string, cause error) *Error {
	return &Error{Kind: KindTransform, Message: message, Cause: cause}
}

// ChannelError creates an error for a broken duplex channel.
func ChannelError(message string, cause error) *Error {
	return &Error{Kind: KindChannel, Message: message, Cause: cause}
}

// AsStreamError converts any error into a structured *Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as a channel error, the only fatal category.
func AsStreamError(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return ChannelError("unexpected error", err)
}

// IsKind reports whether err is a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	var structured *Error
	if errors.As(err, &structured) {
		return structured.Kind == kind
	}
	return false
}

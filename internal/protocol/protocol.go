// Package protocol defines the JSON wire protocol spoken over a streaming
// session. Inbound messages are decoded once at the boundary into a closed
// set of typed variants; outbound messages are built through the reply
// helpers.
package protocol

import (
	"encoding/json"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
)

// Client message types.
const (
	TypeSetStyleImage = "set_style_image"
	TypeSetColorImage = "set_color_image"
	TypeProcessFrame  = "process_frame"
	TypePing          = "ping"
)

// Server message types.
const (
	TypeStyleImageSet = "style_image_set"
	TypeColorImageSet = "color_image_set"
	TypeFrameResult   = "frame_result"
	TypeError         = "error"
	TypePong          = "pong"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ClientMessage is the closed set of messages a client may send.
type ClientMessage interface{ clientMessage() }

// SetStyleImage carries the style reference image for a session.
type SetStyleImage struct {
	ImageData string `json:"image_data"`
}

func (SetStyleImage) clientMessage() {}

// SetColorImage carries the color reference image for a session.
type SetColorImage struct {
	ImageData string `json:"image_data"`
}

func (SetColorImage) clientMessage() {}

// ProcessFrame submits one video frame for transformation.
type ProcessFrame struct {
	FrameID   string `json:"frame_id"`
	FrameData string `json:"frame_data"`
}

func (ProcessFrame) clientMessage() {}

// Ping is a keepalive probe.
type Ping struct{}

func (Ping) clientMessage() {}

// DecodeClientMessage parses a raw inbound payload into exactly one typed
// variant. Unknown types and undecodable payloads map to a ProtocolError;
// the connection stays open.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.ProtocolError("message is not valid JSON")
	}

	switch env.Type {
	case TypeSetStyleImage:
		var msg SetStyleImage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, errors.ProtocolError("invalid set_style_image payload")
		}
		return msg, nil
	case TypeSetColorImage:
		var msg SetColorImage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, errors.ProtocolError("invalid set_color_image payload")
		}
		return msg, nil
	case TypeProcessFrame:
		var msg ProcessFrame
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, errors.ProtocolError("invalid process_frame payload")
		}
		if msg.FrameID == "" {
			return nil, errors.ProtocolError("process_frame requires frame_id")
		}
		return msg, nil
	case TypePing:
		return Ping{}, nil
	case "":
		return nil, errors.ProtocolError("message has no type")
	default:
		return nil, errors.ProtocolError("unknown message type: " + env.Type)
	}
}

func marshal(msgType string, data any) []byte {
	out, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		// All reply payloads are plain structs of scalars; this cannot fail.
		panic(err)
	}
	return out
}

// StyleImageSet acknowledges a style reference update.
func StyleImageSet(success bool) []byte {
	return marshal(TypeStyleImageSet, map[string]any{"success": success})
}

// ColorImageSet acknowledges a color reference update, optionally carrying a
// validation message.
func ColorImageSet(success bool, message string) []byte {
	data := map[string]any{"success": success}
	if message != "" {
		data["message"] = message
	}
	return marshal(TypeColorImageSet, data)
}

// FrameResult carries one transformed frame back to the client.
// processingTime is in milliseconds.
func FrameResult(frameID, frameData string, processingTime, qualityScore float64) []byte {
	return marshal(TypeFrameResult, map[string]any{
		"frame_id":        frameID,
		"frame_data":      frameData,
		"processing_time": processingTime,
		"quality_score":   qualityScore,
	})
}

// ErrorMessage reports a recoverable per-message failure.
func ErrorMessage(message string, retryPossible bool) []byte {
	return marshal(TypeError, map[string]any{
		"message":        message,
		"retry_possible": retryPossible,
	})
}

// Pong answers a ping.
func Pong() []byte {
	return marshal(TypePong, map[string]any{})
}

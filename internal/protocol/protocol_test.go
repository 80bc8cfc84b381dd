package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
)

func TestDecodeClientMessage_SetStyleImage(t *testing.T) {
	raw := []byte(`{"type":"set_style_image","data":{"image_data":"abc123"}}`)

	msg, err := DecodeClientMessage(raw)
	require.NoError(t, err)

	style, ok := msg.(SetStyleImage)
	require.True(t, ok)
	assert.Equal(t, "abc123", style.ImageData)
}

func TestDecodeClientMessage_SetColorImage(t *testing.T) {
	raw := []byte(`{"type":"set_color_image","data":{"image_data":"xyz"}}`)

	msg, err := DecodeClientMessage(raw)
	require.NoError(t, err)

	clr, ok := msg.(SetColorImage)
	require.True(t, ok)
	assert.Equal(t, "xyz", clr.ImageData)
}

func TestDecodeClientMessage_ProcessFrame(t *testing.T) {
	raw := []byte(`{"type":"process_frame","data":{"frame_id":"f42","frame_data":"ZnJhbWU="}}`)

	msg, err := DecodeClientMessage(raw)
	require.NoError(t, err)

	pf, ok := msg.(ProcessFrame)
	require.True(t, ok)
	assert.Equal(t, "f42", pf.FrameID)
	assert.Equal(t, "ZnJhbWU=", pf.FrameData)
}

func TestDecodeClientMessage_ProcessFrameRequiresFrameID(t *testing.T) {
	raw := []byte(`{"type":"process_frame","data":{"frame_data":"ZnJhbWU="}}`)

	_, err := DecodeClientMessage(raw)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindProtocol))
}

func TestDecodeClientMessage_Ping(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"ping"}`))
	require.NoError(t, err)

	_, ok := msg.(Ping)
	assert.True(t, ok)
}

func TestDecodeClientMessage_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing type", `{"data":{}}`},
		{"unknown type", `{"type":"reticulate_splines","data":{}}`},
		{"bad payload shape", `{"type":"process_frame","data":"not-an-object"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindProtocol))
		})
	}
}

func TestFrameResult_Shape(t *testing.T) {
	raw := FrameResult("f1", "cGF5bG9hZA==", 125.5, 0.92)

	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))

	assert.Equal(t, TypeFrameResult, env.Type)
	assert.Equal(t, "f1", env.Data["frame_id"])
	assert.Equal(t, "cGF5bG9hZA==", env.Data["frame_data"])
	assert.InDelta(t, 125.5, env.Data["processing_time"], 1e-9)
	assert.InDelta(t, 0.92, env.Data["quality_score"], 1e-9)
}

func TestColorImageSet_OmitsEmptyMessage(t *testing.T) {
	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}

	require.NoError(t, json.Unmarshal(ColorImageSet(true, ""), &env))
	assert.Equal(t, true, env.Data["success"])
	assert.NotContains(t, env.Data, "message")

	require.NoError(t, json.Unmarshal(ColorImageSet(false, "invalid image"), &env))
	assert.Equal(t, false, env.Data["success"])
	assert.Equal(t, "invalid image", env.Data["message"])
}

func TestErrorMessage_Shape(t *testing.T) {
	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ErrorMessage("unknown message type", true), &env))

	assert.Equal(t, TypeError, env.Type)
	assert.Equal(t, "unknown message type", env.Data["message"])
	assert.Equal(t, true, env.Data["retry_possible"])
}

func TestPong_Shape(t *testing.T) {
	var env struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(Pong(), &env))
	assert.Equal(t, TypePong, env.Type)
}

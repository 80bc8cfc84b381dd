// Package frame provides the decoded video frame type and the pure
// bytes-to-frame codec used at the pipeline boundaries.
package frame

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
)

const jpegQuality = 85

// Frame is a single decoded video frame.
type Frame struct {
	Image image.Image
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Decode parses raw image bytes (JPEG or PNG) into a Frame.
func Decode(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, errors.DecodeError("empty image payload", nil)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.DecodeError("unsupported or corrupt image", err)
	}
	return &Frame{Image: img}, nil
}

// Encode serializes a Frame to JPEG bytes.
func Encode(f *Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, errors.DecodeError("failed to encode frame", err)
	}
	return buf.Bytes(), nil
}

// DecodeBase64Bytes decodes a base64 payload (with or without a data-URL
// prefix) into raw image bytes without parsing the image itself.
func DecodeBase64Bytes(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.DecodeError("invalid base64 payload", err)
	}
	return data, nil
}

// DecodeBase64 decodes a base64 payload into a Frame.
func DecodeBase64(payload string) (*Frame, error) {
	data, err := DecodeBase64Bytes(payload)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// EncodeBase64 serializes a Frame to a base64 JPEG payload.
func EncodeBase64(f *Frame) (string, error) {
	data, err := Encode(f)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Package transform wraps the external style-transfer service. The transform
// is a black box: slow, failure-prone, and not assumed cancellable once a
// request is in flight.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
)

// Transformer maps a frame through the external transform using the
// session's reference images. color may be nil.
type Transformer interface {
	Transform(ctx context.Context, f, style, color *frame.Frame) (*frame.Frame, error)
}

type transformRequest struct {
	Frame string `json:"frame"`
	Style string `json:"style"`
	Color string `json:"color,omitempty"`
}

type transformResponse struct {
	Frame string `json:"frame"`
	Error string `json:"error,omitempty"`
}

// HTTPTransformer calls a style-transfer inference endpoint over HTTP.
type HTTPTransformer struct {
	url    string
	client *http.Client
}

// NewHTTPTransformer creates a transformer targeting the given inference
// endpoint. timeout bounds each request end to end.
func NewHTTPTransformer(url string, timeout time.Duration) *HTTPTransformer {
	return &HTTPTransformer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Transform sends the frame and references to the inference endpoint and
// decodes the transformed frame from the response.
func (t *HTTPTransformer) Transform(ctx context.Context, f, style, color *frame.Frame) (*frame.Frame, error) {
	framePayload, err := frame.EncodeBase64(f)
	if err != nil {
		return nil, errors.TransformError("failed to serialize frame", err)
	}
	stylePayload, err := frame.EncodeBase64(style)
	if err != nil {
		return nil, errors.TransformError("failed to serialize style reference", err)
	}

	req := transformRequest{Frame: framePayload, Style: stylePayload}
	if color != nil {
		colorPayload, err := frame.EncodeBase64(color)
		if err != nil {
			return nil, errors.TransformError("failed to serialize color reference", err)
		}
		req.Color = colorPayload
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.TransformError("failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.TransformError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.TransformError("transform request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.TransformError(
			fmt.Sprintf("transform service returned %d: %s", resp.StatusCode, payload), nil)
	}

	var out transformResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.TransformError("failed to decode response", err)
	}
	if out.Error != "" {
		return nil, errors.TransformError("transform service error: "+out.Error, nil)
	}

	result, err := frame.DecodeBase64(out.Frame)
	if err != nil {
		return nil, errors.TransformError("transform returned an undecodable frame", err)
	}
	return result, nil
}

// Healthcheck probes whether the inference endpoint is reachable. Any HTTP
// response counts; only transport failures are errors.
func (t *HTTPTransformer) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.url, nil)
	if err != nil {
		return errors.TransformError("failed to build healthcheck request", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.TransformError("transform service unreachable", err)
	}
	resp.Body.Close()
	return nil
}

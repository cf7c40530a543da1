package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/model"
)

// DefaultEndpoint is the usual address of a locally run prediction service.
const DefaultEndpoint = "http://localhost:5000/predict"

// formField is the multipart field carrying the image bytes.
const formField = "image"

// Client posts images to a remote prediction endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the given endpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL images are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Response is the decoded prediction payload.
type Response struct {
	Class         string
	HasClass      bool // false when the payload had no usable "class" field
	Probabilities []float64
}

// Predict sends img as a multipart/form-data POST with a single "image"
// field and decodes the JSON reply. Network failures, non-2xx statuses and
// bodies that are not a JSON object are returned wrapped in
// inference.ErrTransport. Missing or mistyped fields inside a valid object
// are tolerated; see decodeResponse. Failed requests are not retried.
func (c *Client) Predict(ctx context.Context, img model.Image) (Response, error) {
	body, contentType, err := encodeImage(img)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", inference.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", inference.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", inference.ErrTransport, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Response{}, fmt.Errorf("%w: read body: %w", inference.ErrTransport, err)
	}

	slog.Debug("remote prediction",
		"endpoint", c.endpoint, "status", resp.StatusCode,
		"bytes", len(data), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(data)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return Response{}, fmt.Errorf("%w: %w", inference.ErrTransport,
			&APIError{StatusCode: resp.StatusCode, Body: bodyStr})
	}

	out, err := decodeResponse(data)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", inference.ErrTransport, err)
	}
	return out, nil
}

// encodeImage builds the multipart body for img.
func encodeImage(img model.Image) (io.Reader, string, error) {
	name := img.Name
	if name == "" {
		name = "image"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(formField, name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeResponse parses {"class": ..., "probabilities": [...]}.
//
// A non-string class is kept as its JSON text (3 -> "3"); an absent or null
// class sets HasClass=false. A probabilities value that is not an array
// becomes empty, and array elements that are not numbers become 0.
func decodeResponse(data []byte) (Response, error) {
	var raw struct {
		Class         json.RawMessage `json:"class"`
		Probabilities json.RawMessage `json:"probabilities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	var out Response
	if cls := bytes.TrimSpace(raw.Class); len(cls) > 0 && !bytes.Equal(cls, []byte("null")) {
		out.HasClass = true
		if err := json.Unmarshal(cls, &out.Class); err != nil {
			out.Class = string(cls)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw.Probabilities, &items); err == nil {
		out.Probabilities = make([]float64, len(items))
		for i, item := range items {
			var p float64
			if err := json.Unmarshal(item, &p); err == nil {
				out.Probabilities[i] = p
			}
		}
	}
	return out, nil
}

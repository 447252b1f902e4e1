// Package embedder talks to the external face-embedding model server. The
// server detects the face in an image and returns a fixed-dimension vector;
// this package treats it as a pure function boundary.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultModel   = "arcface"

	// maxUploadDimension is the longest image side sent to the model server;
	// larger images are downscaled first.
	maxUploadDimension = 1600
)

// ErrFaceNotFound indicates the model server could not locate a face in the
// image. Propagated unchanged to callers; no match is attempted.
var ErrFaceNotFound = errors.New("no face found in image")

// Client computes face embeddings using the embedding model server.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates an embedding client for the given server URL and model
// name, with sensible defaults when either is empty.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Model returns the model name being used.
func (c *Client) Model() string {
	return c.model
}

// embedResponse represents the response from the embedding server.
type embedResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	FaceCount int       `json:"face_count"`
	Detail    string    `json:"detail"`
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) (int, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return 0, nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Embed computes the face embedding for an image. Returns ErrFaceNotFound
// when the server reports no detectable face (HTTP 404/422 or zero faces).
func (c *Client) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	prepared, err := PrepareImage(imageData, maxUploadDimension)
	if err != nil {
		return nil, err
	}

	status, body, err := c.postMultipartImage(ctx, "/embed/face?model="+c.model, prepared)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		// Fall through to parse.
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return nil, ErrFaceNotFound
	default:
		return nil, fmt.Errorf("embedding server error (status %d): %s", status, string(body))
	}

	var embResp embedResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if embResp.FaceCount == 0 && len(embResp.Embedding) == 0 {
		return nil, ErrFaceNotFound
	}
	if len(embResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return embResp.Embedding, nil
}

// Healthy checks whether the embedding server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}

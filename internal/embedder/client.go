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
	"time"

	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
)

var (
	// ErrUnavailable means the embedding service could not be reached or
	// did not answer in time. Distinct from ErrNoFace: the caller may
	// retry this one.
	ErrUnavailable = errors.New("embedding service unavailable")

	// ErrNoFace means the service answered but found no face in the image.
	ErrNoFace = errors.New("no face detected")

	// ErrBadDimension means the service returned a vector that is not
	// 512-dimensional.
	ErrBadDimension = errors.New("unexpected embedding dimension")
)

// Client calls the external face-embedding service. Every call is bounded
// by the configured timeout; the image is streamed straight from the
// caller's reader, so no temp files are created on any path.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(cfg config.EmbedderConfig) *Client {
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type embedResponse struct {
	Success   bool      `json:"success"`
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed posts the image and returns a 512-dimensional embedding.
func (c *Client) Embed(ctx context.Context, filename, contentType string, image io.Reader) ([]float32, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	partHeader.Set("Content-Type", contentType)
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.EmbedderRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if !er.Success {
		return nil, ErrNoFace
	}
	if len(er.Embedding) != models.EmbeddingDim {
		return nil, fmt.Errorf("%w: got %d", ErrBadDimension, len(er.Embedding))
	}
	return er.Embedding, nil
}

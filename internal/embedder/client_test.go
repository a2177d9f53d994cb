package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/models"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(config.EmbedderConfig{URL: url, Timeout: timeout})
}

func embedOnce(t *testing.T, c *Client) ([]float32, error) {
	t.Helper()
	img := bytes.NewReader([]byte("\xff\xd8\xff\xe0fake-jpeg-bytes"))
	return c.Embed(context.Background(), "probe.jpg", "image/jpeg", img)
}

func TestEmbedSuccess(t *testing.T) {
	want := make([]float32, models.EmbeddingDim)
	for i := range want {
		want[i] = float32(i) / float32(models.EmbeddingDim)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "probe.jpg", header.Filename)

		json.NewEncoder(w).Encode(embedResponse{Success: true, Embedding: want})
	}))
	defer srv.Close()

	got, err := embedOnce(t, newTestClient(srv.URL, time.Second))
	require.NoError(t, err)
	assert.Len(t, got, models.EmbeddingDim)
	assert.Equal(t, want, got)
}

func TestEmbedNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Success: false, Error: "no face found"})
	}))
	defer srv.Close()

	_, err := embedOnce(t, newTestClient(srv.URL, time.Second))
	assert.ErrorIs(t, err, ErrNoFace)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := embedOnce(t, newTestClient(srv.URL, time.Second))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmbedTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	_, err := embedOnce(t, newTestClient(srv.URL, 50*time.Millisecond))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmbedUnreachable(t *testing.T) {
	// Port 1 is reserved and nothing listens on it.
	_, err := embedOnce(t, newTestClient("http://127.0.0.1:1/embed", time.Second))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmbedWrongDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Success: true, Embedding: []float32{1, 2, 3}})
	}))
	defer srv.Close()

	_, err := embedOnce(t, newTestClient(srv.URL, time.Second))
	assert.ErrorIs(t, err, ErrBadDimension)
}

func TestEmbedGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := embedOnce(t, newTestClient(srv.URL, time.Second))
	assert.ErrorIs(t, err, ErrUnavailable)
}

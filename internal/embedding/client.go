// Package embedding is the boundary to the external embedding inference
// service. The model itself (a multilingual sentence encoder) runs
// out-of-process; this client only ships strings and receives vectors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// Client talks to the embedding service over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given service base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type encodeRequest struct {
	Texts     []string `json:"texts"`
	Normalize bool     `json:"normalize"`
}

type encodeResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode returns one vector per input text. Transport failures surface as
// unavailable errors so callers can decide to skip a paragraph or abort the
// batch.
func (c *Client) Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(encodeRequest{Texts: texts, Normalize: normalize})
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "marshal encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/encode", bytes.NewReader(body))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "build encode request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "embedding service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, derrors.Wrap(
			fmt.Errorf("status %d", resp.StatusCode),
			derrors.CodeUnavailable, "embedding service error",
		)
	}
	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "decode embedding response")
	}
	if len(decoded.Embeddings) != len(texts) {
		return nil, derrors.Newf(derrors.CodeUnavailable,
			"embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(decoded.Embeddings))
	}
	return decoded.Embeddings, nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeUnavailable, "embedding service unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return derrors.Newf(derrors.CodeUnavailable, "embedding service health status %d", resp.StatusCode)
	}
	return nil
}

// CosSim is the cosine similarity of two vectors; zero vectors score 0.
func CosSim(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package librarian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Embedder is the embedding capability: fixed-dimension vectors tagged with
// the model version that produced them.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelVersion() string
}

// HTTPEmbedder calls a sentence-embedding HTTP service.
type HTTPEmbedder struct {
	baseURL      string
	modelVersion string
	dimension    int
	httpClient   *http.Client
}

// NewHTTPEmbedder creates an embedder client for the service at baseURL.
func NewHTTPEmbedder(baseURL, modelVersion string, dimension int) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL:      baseURL,
		modelVersion: modelVersion,
		dimension:    dimension,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed submits text and returns the vector. A vector of the wrong
// dimension is a capability fault, not something to store.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint, err := url.JoinPath(e.baseURL, "embed")
	if err != nil {
		return nil, fmt.Errorf("failed to build embed URL: %w", err)
	}

	jsonBody, err := json.Marshal(embedRequest{Text: text, Model: e.modelVersion})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(embedResp.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension %d, expected %d", len(embedResp.Embedding), e.dimension)
	}
	return embedResp.Embedding, nil
}

// ModelVersion returns the model tag recorded on every embedding row.
func (e *HTTPEmbedder) ModelVersion() string {
	return e.modelVersion
}

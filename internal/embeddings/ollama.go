package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moku180/legalaichatbot/internal/llm"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaEmbedder generates embeddings against a local Ollama daemon. It
// carries no API key; the host is trusted as configured.
type OllamaEmbedder struct {
	host       string
	model      string
	dimensions int
	client     *http.Client
}

// NewOllamaEmbedder creates an embedder for the given Ollama model.
// dimensions must match the model's output size (768 for nomic-embed-text);
// host defaults to the local daemon when empty.
func NewOllamaEmbedder(model string, dimensions int, host string) *OllamaEmbedder {
	if host == "" {
		host = defaultOllamaHost
	}
	return &OllamaEmbedder{
		host:       host,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed submits the whole slice as one /api/embed call. A response with the
// wrong count or dimension is a failed call, never a partial success, so the
// adaptive client degrades the batch instead of misaligning it.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encoding ollama embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building ollama embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %v", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("ollama: %w: %s", llm.ErrRateLimited, msg)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("ollama: %w: status %d: %s", llm.ErrUnavailable, resp.StatusCode, msg)
		default:
			return nil, fmt.Errorf("ollama: %w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, msg)
		}
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: %w: decoding response: %v", ErrEmbeddingFailed, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: %w: got %d embeddings for %d texts",
			ErrEmbeddingFailed, len(result.Embeddings), len(texts))
	}
	for _, v := range result.Embeddings {
		if len(v) != e.dimensions {
			return nil, fmt.Errorf("ollama: %w: got %d-dimensional vector, expected %d",
				ErrEmbeddingFailed, len(v), e.dimensions)
		}
	}
	return result.Embeddings, nil
}

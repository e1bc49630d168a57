package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moku180/legalaichatbot/internal/llm"
)

func ollamaServer(t *testing.T, handler http.HandlerFunc) *OllamaEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaEmbedder("nomic-embed-text", 3, srv.URL)
}

func TestOllamaEmbedBatchRoundtrip(t *testing.T) {
	var gotReq ollamaEmbedRequest
	e := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}},
		})
	})

	vecs, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("unexpected result shape: %v", vecs)
	}
	if gotReq.Model != "nomic-embed-text" || len(gotReq.Input) != 2 {
		t.Errorf("request not batched: %+v", gotReq)
	}
}

func TestOllamaEmbedClassifiesTransientErrors(t *testing.T) {
	e := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	})
	if _, err := e.Embed(context.Background(), []string{"a"}); !errors.Is(err, llm.ErrRateLimited) {
		t.Errorf("429 should classify as rate limited, got %v", err)
	}

	e = ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if _, err := e.Embed(context.Background(), []string{"a"}); !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("503 should classify as unavailable, got %v", err)
	}
}

func TestOllamaEmbedRejectsShortResponse(t *testing.T) {
	e := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0, 0}}})
	})
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("short response should fail the whole call, got %v", err)
	}

	e = ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0}}})
	})
	if _, err := e.Embed(context.Background(), []string{"a"}); !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("wrong dimension should fail the call, got %v", err)
	}
}

func TestOllamaEmbedEmptyInput(t *testing.T) {
	e := NewOllamaEmbedder("nomic-embed-text", 3, "")
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("empty input should be a no-op, got %v / %v", vecs, err)
	}
}

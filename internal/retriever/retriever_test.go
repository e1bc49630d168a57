package retriever

import (
	"context"
	"testing"

	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/embeddings"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Dimensions() int { return 2 }

func (f *fixedEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return nil, embeddings.ErrEmbeddingFailed
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([]embeddings.BatchResult, error) {
	var out []embeddings.BatchResult
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out = append(out, embeddings.BatchResult{Index: i, Vector: v})
		}
	}
	return out, nil
}

// seedStore indexes the given texts with vectors placed at increasing
// distance from the query vector (1,0), so relevance order follows input
// order.
func seedStore(t *testing.T, texts []string) *vectorindex.Store {
	t.Helper()
	vectors := map[string][]float32{"query": {1, 0}}
	for i, text := range texts {
		vectors[text] = []float32{1, float32(i) * 0.1}
	}
	store := vectorindex.NewStore(t.TempDir(), &fixedEmbedder{vectors: vectors}, nil)

	chunks := make([]chunker.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = chunker.Chunk{Text: text, Metadata: chunker.Metadata{DocumentID: "d", ChunkIndex: i}}
	}
	if err := store.Add(context.Background(), "org-1", chunks); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return store
}

func TestRetrieveDiverseNoDuplicatesAndBounded(t *testing.T) {
	texts := []string{
		"robots must register with the authority",
		"robots must register with the agency",
		"penalties for unregistered robots apply",
		"fees are waived for research machines",
		"annual inspection is mandatory for all units",
		"the registry is public and searchable online",
	}
	store := seedStore(t, texts)
	r := New(store, 3, 0.3)

	results, err := r.RetrieveDiverse(context.Background(), "org-1", "query", vectorindex.Filters{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) > 3 {
		t.Fatalf("expected at most 3 results, got %d", len(results))
	}
	seen := make(map[string]bool)
	for _, res := range results {
		if seen[res.Text] {
			t.Errorf("duplicate chunk selected: %q", res.Text)
		}
		seen[res.Text] = true
	}
}

func TestRetrieveDiverseZeroWeightIsRelevanceOrder(t *testing.T) {
	texts := []string{"first closest", "second closest", "third closest", "fourth closest"}
	store := seedStore(t, texts)

	plain := New(store, 3, 0)
	baseline, err := plain.Retrieve(context.Background(), "org-1", "query", vectorindex.Filters{})
	if err != nil {
		t.Fatalf("plain retrieve: %v", err)
	}

	diverse, err := plain.RetrieveDiverse(context.Background(), "org-1", "query", vectorindex.Filters{})
	if err != nil {
		t.Fatalf("diverse retrieve: %v", err)
	}

	if len(diverse) != len(baseline) {
		t.Fatalf("expected %d results, got %d", len(baseline), len(diverse))
	}
	for i := range baseline {
		if diverse[i].Text != baseline[i].Text {
			t.Errorf("position %d: diversity weight 0 changed order: %q vs %q", i, diverse[i].Text, baseline[i].Text)
		}
	}
}

func TestRetrieveDiversePenalizesNearCopies(t *testing.T) {
	// The two nearest chunks are near-identical; with a strong diversity
	// weight the second pick should skip to different wording.
	texts := []string{
		"robots must register with the authority every year",
		"robots must register with the authority every single year",
		"contract termination requires thirty days written notice",
	}
	store := seedStore(t, texts)
	r := New(store, 2, 0.9)

	results, err := r.RetrieveDiverse(context.Background(), "org-1", "query", vectorindex.Filters{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != texts[0] {
		t.Errorf("first pick should be the most relevant chunk, got %q", results[0].Text)
	}
	if results[1].Text != texts[2] {
		t.Errorf("second pick should avoid the near-copy, got %q", results[1].Text)
	}
}

func TestRetrieveDiverseEmptyPool(t *testing.T) {
	store := vectorindex.NewStore(t.TempDir(), &fixedEmbedder{vectors: map[string][]float32{"query": {1, 0}}}, nil)
	r := New(store, 5, 0.3)

	results, err := r.RetrieveDiverse(context.Background(), "org-empty", "query", vectorindex.Filters{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

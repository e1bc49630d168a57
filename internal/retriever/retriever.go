// Package retriever selects context chunks for a query. Plain retrieval
// returns the nearest chunks as ranked by the index; diverse retrieval
// re-ranks an over-fetched pool with maximal marginal relevance so the
// specialist agents see complementary passages instead of five near-copies
// of the same clause.
package retriever

import (
	"context"
	"strings"

	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

type Retriever struct {
	store     *vectorindex.Store
	topK      int
	diversity float64
}

// New creates a Retriever returning up to topK chunks per query. diversity
// in [0,1] weights the penalty for lexical overlap with already-selected
// chunks; 0 reproduces plain relevance order.
func New(store *vectorindex.Store, topK int, diversity float64) *Retriever {
	return &Retriever{store: store, topK: topK, diversity: diversity}
}

// Retrieve returns the topK most relevant chunks for the query, best first.
func (r *Retriever) Retrieve(ctx context.Context, orgID, query string, filters vectorindex.Filters) ([]vectorindex.SearchResult, error) {
	return r.store.Search(ctx, orgID, query, r.topK, filters)
}

// RetrieveDiverse fetches twice the target count of candidates and greedily
// picks chunks by marginal relevance: each step takes the candidate with the
// best relevance score discounted by its worst-case lexical overlap with the
// chunks already chosen.
func (r *Retriever) RetrieveDiverse(ctx context.Context, orgID, query string, filters vectorindex.Filters) ([]vectorindex.SearchResult, error) {
	pool, err := r.store.Search(ctx, orgID, query, r.topK*2, filters)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	wordSets := make([]map[string]struct{}, len(pool))
	for i, c := range pool {
		wordSets[i] = wordSet(c.Text)
	}

	selected := make([]vectorindex.SearchResult, 0, r.topK)
	selectedSets := make([]map[string]struct{}, 0, r.topK)
	used := make([]bool, len(pool))

	for len(selected) < r.topK && len(selected) < len(pool) {
		best := -1
		bestScore := 0.0
		for i, c := range pool {
			if used[i] {
				continue
			}
			maxOverlap := 0.0
			for _, s := range selectedSets {
				if j := jaccard(wordSets[i], s); j > maxOverlap {
					maxOverlap = j
				}
			}
			score := c.Score - r.diversity*maxOverlap
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		used[best] = true
		selected = append(selected, pool[best])
		selectedSets = append(selectedSets, wordSets[best])
	}

	return selected, nil
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard is the intersection-over-union of two word sets. Two empty sets
// count as disjoint rather than identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

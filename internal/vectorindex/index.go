package vectorindex

import (
	"fmt"
	"sort"
)

// flatIndex is a brute-force Euclidean index over a single tenant's vectors.
// Vectors and entries are parallel slices appended in lock-step; their
// lengths are equal at every observable point. Not safe for concurrent use;
// the owning tenant handle provides locking.
type flatIndex struct {
	dimension int
	vectors   [][]float32
	entries   []Entry
}

func newFlatIndex(dimension int) *flatIndex {
	return &flatIndex{dimension: dimension}
}

func (ix *flatIndex) size() int {
	return len(ix.vectors)
}

// append adds vectors and entries atomically, in the same order. A single
// dimension mismatch rejects the whole batch so alignment is never broken.
func (ix *flatIndex) append(vectors [][]float32, entries []Entry) error {
	if len(vectors) != len(entries) {
		return fmt.Errorf("%w: %d vectors, %d entries", ErrIndexCorrupt, len(vectors), len(entries))
	}
	for _, v := range vectors {
		if len(v) != ix.dimension {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), ix.dimension)
		}
	}
	ix.vectors = append(ix.vectors, vectors...)
	ix.entries = append(ix.entries, entries...)
	return nil
}

// neighbor is one candidate from a nearest-neighbor scan.
type neighbor struct {
	idx      int
	distance float64
}

// nearest returns the k nearest entries by squared Euclidean distance, in
// ascending distance order. Distances stay squared; ordering is identical
// and downstream scoring only needs monotonicity.
func (ix *flatIndex) nearest(query []float32, k int) []neighbor {
	n := ix.size()
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	candidates := make([]neighbor, n)
	for i, v := range ix.vectors {
		candidates[i] = neighbor{idx: i, distance: squaredL2(query, v)}
	}
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})

	return candidates[:k]
}

func squaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

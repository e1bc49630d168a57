package vectorindex

import (
	"errors"

	"github.com/moku180/legalaichatbot/internal/chunker"
)

var (
	// ErrDimensionMismatch indicates a vector does not match the index
	// dimension fixed at creation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupt indicates a persisted tenant index could not be
	// decoded or violates the vector/metadata alignment invariant.
	ErrIndexCorrupt = errors.New("tenant index corrupt")

	// ErrNoChunks indicates Add was called with an empty chunk list.
	ErrNoChunks = errors.New("no chunks to index")
)

// Entry is one indexed chunk: its text and metadata, held in lock-step with
// the vector at the same position.
type Entry struct {
	Text     string
	Metadata chunker.Metadata
}

// SearchResult pairs an entry with its similarity score. Score is derived
// from Euclidean distance as 1/(1+d), so higher is more similar.
type SearchResult struct {
	Text     string
	Metadata chunker.Metadata
	Score    float64
	Distance float64
}

// Filters narrows search results by exact metadata equality. Zero-valued
// fields are ignored.
type Filters struct {
	Jurisdiction string
	DocumentType string
	CourtLevel   string
	Year         int
}

// Matches reports whether every set filter field equals the corresponding
// metadata field.
func (f Filters) Matches(m chunker.Metadata) bool {
	if f.Jurisdiction != "" && m.Jurisdiction != f.Jurisdiction {
		return false
	}
	if f.DocumentType != "" && m.DocumentType != f.DocumentType {
		return false
	}
	if f.CourtLevel != "" && m.CourtLevel != f.CourtLevel {
		return false
	}
	if f.Year != 0 && m.Year != f.Year {
		return false
	}
	return true
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

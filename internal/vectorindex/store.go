// Package vectorindex holds one similarity-search index per tenant: a flat
// Euclidean index over chunk vectors with a parallel metadata list, persisted
// to local disk and optionally mirrored to remote blob storage.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/moku180/legalaichatbot/internal/blob"
	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/embeddings"
)

// EmbeddingClient is the subset of the adaptive embedding client the index
// depends on.
type EmbeddingClient interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([]embeddings.BatchResult, error)
	Dimensions() int
}

// Store is the per-tenant index registry. Each tenant's index, lock and
// persistence path are fully independent: request handling for one tenant
// never blocks on another tenant's ingestion.
type Store struct {
	dir      string
	embedder EmbeddingClient
	mirror   blob.Storage // nil disables remote mirroring

	mu      sync.Mutex
	tenants map[string]*tenant
}

// tenant is the handle for one organization's index. writeMu enforces
// single-writer discipline across append and rebuild; mu guards the index
// pointer so searches may read a slightly stale index but never a half-built
// one.
type tenant struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	idx     *flatIndex
	loaded  atomic.Bool
}

// NewStore creates a Store persisting indexes under dir. mirror may be nil.
func NewStore(dir string, embedder EmbeddingClient, mirror blob.Storage) *Store {
	return &Store{
		dir:      dir,
		embedder: embedder,
		mirror:   mirror,
		tenants:  make(map[string]*tenant),
	}
}

func (s *Store) tenant(orgID string) *tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[orgID]
	if !ok {
		t = &tenant{}
		s.tenants[orgID] = t
	}
	return t
}

// load reads the tenant's index from local disk, falling back to the remote
// mirror when the local copy is absent. Called with t.writeMu held. A missing
// index is not an error; the handle simply stays empty.
func (s *Store) load(ctx context.Context, t *tenant, orgID string) error {
	if t.loaded.Load() {
		return nil
	}

	ix, err := loadIndex(s.dir, orgID)
	if errors.Is(err, os.ErrNotExist) && s.mirror != nil {
		key := indexFileName(orgID)
		if ok, exErr := s.mirror.Exists(ctx, key); exErr == nil && ok {
			local := filepath.Join(s.dir, key)
			if dlErr := s.mirror.Download(ctx, key, local); dlErr != nil {
				return fmt.Errorf("syncing index for org %s: %w", orgID, dlErr)
			}
			ix, err = loadIndex(s.dir, orgID)
		}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.loaded.Store(true)
			return nil
		}
		return err
	}

	t.mu.Lock()
	t.idx = ix
	t.mu.Unlock()
	t.loaded.Store(true)
	return nil
}

// persist writes the tenant's index to disk and mirrors it to remote storage
// if configured. The local write must succeed before the mutation is
// considered durable; a mirror failure is logged but not fatal.
func (s *Store) persist(ctx context.Context, t *tenant, orgID string) error {
	t.mu.RLock()
	ix := t.idx
	t.mu.RUnlock()

	path, err := saveIndex(s.dir, orgID, ix)
	if err != nil {
		return err
	}

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, path, indexFileName(orgID)); err != nil {
			log.Printf("vectorindex: mirror upload for org %s failed: %v", orgID, err)
		}
	}
	return nil
}

// Add embeds the chunks and appends vectors and metadata to the tenant's
// index in lock-step, creating the index on first use with the dimension of
// the embedding result. The index is persisted before Add returns.
func (s *Store) Add(ctx context.Context, orgID string, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return ErrNoChunks
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	results, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks for org %s: %w", orgID, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("org %s: %w: no chunk could be embedded", orgID, embeddings.ErrEmbeddingFailed)
	}

	vectors := make([][]float32, len(results))
	entries := make([]Entry, len(results))
	for i, r := range results {
		c := chunks[r.Index]
		vectors[i] = r.Vector
		entries[i] = Entry{Text: c.Text, Metadata: c.Metadata}
	}

	t := s.tenant(orgID)
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := s.load(ctx, t, orgID); err != nil {
		return err
	}

	t.mu.Lock()
	if t.idx == nil {
		t.idx = newFlatIndex(len(vectors[0]))
	}
	err = t.idx.append(vectors, entries)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	return s.persist(ctx, t, orgID)
}

// Search embeds the query and returns up to topK results passing the filters,
// in ascending distance order. The candidate set is over-fetched at three
// times topK because filters may discard most of the nearest neighbors.
// An org with no index, or an empty one, yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, orgID, query string, topK int, filters Filters) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	t := s.tenant(orgID)
	if !t.loaded.Load() {
		t.writeMu.Lock()
		err := s.load(ctx, t, orgID)
		t.writeMu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	// The empty check must read size under the lock: a concurrent Add
	// appends to the same index in place.
	t.mu.RLock()
	empty := t.idx == nil || t.idx.size() == 0
	t.mu.RUnlock()
	if empty {
		return nil, nil
	}

	queryVec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query for org %s: %w", orgID, err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	ix := t.idx

	searchK := topK * 3
	if searchK > ix.size() {
		searchK = ix.size()
	}

	results := make([]SearchResult, 0, topK)
	for _, nb := range ix.nearest(queryVec, searchK) {
		entry := ix.entries[nb.idx]
		if !filters.IsZero() && !filters.Matches(entry.Metadata) {
			continue
		}
		results = append(results, SearchResult{
			Text:     entry.Text,
			Metadata: entry.Metadata,
			Distance: nb.distance,
			Score:    1.0 / (1.0 + nb.distance),
		})
		if len(results) >= topK {
			break
		}
	}

	return results, nil
}

// DeleteDocument removes all chunks belonging to the given document. The
// underlying index has no in-place deletion, so the retained rows are built
// into a fresh index which is swapped in atomically; concurrent searches see
// either the old index or the new one, never a partial state. Returns the
// number of chunks removed.
func (s *Store) DeleteDocument(ctx context.Context, orgID, documentID string) (int, error) {
	t := s.tenant(orgID)
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := s.load(ctx, t, orgID); err != nil {
		return 0, err
	}

	t.mu.RLock()
	ix := t.idx
	t.mu.RUnlock()
	if ix == nil {
		return 0, nil
	}

	rebuilt := newFlatIndex(ix.dimension)
	removed := 0
	for i, e := range ix.entries {
		if e.Metadata.DocumentID == documentID {
			removed++
			continue
		}
		if err := rebuilt.append([][]float32{ix.vectors[i]}, []Entry{e}); err != nil {
			return 0, err
		}
	}
	if removed == 0 {
		return 0, nil
	}

	t.mu.Lock()
	t.idx = rebuilt
	t.mu.Unlock()

	if err := s.persist(ctx, t, orgID); err != nil {
		return removed, err
	}
	return removed, nil
}

// Count returns the number of indexed chunks for the org, loading the index
// if needed. Used by status endpoints and tests.
func (s *Store) Count(ctx context.Context, orgID string) (int, error) {
	t := s.tenant(orgID)
	if !t.loaded.Load() {
		t.writeMu.Lock()
		err := s.load(ctx, t, orgID)
		t.writeMu.Unlock()
		if err != nil {
			return 0, err
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.idx == nil {
		return 0, nil
	}
	return t.idx.size(), nil
}

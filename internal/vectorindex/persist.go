package vectorindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// indexFile is the on-disk representation of one tenant's index.
type indexFile struct {
	Dimension int
	Vectors   [][]float32
	Entries   []Entry
}

func indexFileName(orgID string) string {
	return fmt.Sprintf("org_%s_index.gob", orgID)
}

// saveIndex writes the index to dir atomically: encode to a temp file, then
// rename over the previous copy.
func saveIndex(dir, orgID string, ix *flatIndex) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating vector store directory: %w", err)
	}

	path := filepath.Join(dir, indexFileName(orgID))
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return "", fmt.Errorf("creating temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	err = enc.Encode(indexFile{
		Dimension: ix.dimension,
		Vectors:   ix.vectors,
		Entries:   ix.entries,
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("encoding index for org %s: %w", orgID, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replacing index for org %s: %w", orgID, err)
	}
	return path, nil
}

// loadIndex reads a tenant index from dir. Returns os.ErrNotExist (wrapped)
// when no file is present; decode failures and alignment violations surface
// ErrIndexCorrupt.
func loadIndex(dir, orgID string) (*flatIndex, error) {
	path := filepath.Join(dir, indexFileName(orgID))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding org %s: %v", ErrIndexCorrupt, orgID, err)
	}

	if len(file.Vectors) != len(file.Entries) {
		return nil, fmt.Errorf("%w: org %s has %d vectors but %d entries",
			ErrIndexCorrupt, orgID, len(file.Vectors), len(file.Entries))
	}
	for _, v := range file.Vectors {
		if len(v) != file.Dimension {
			return nil, fmt.Errorf("%w: org %s vector dimension %d, expected %d",
				ErrIndexCorrupt, orgID, len(v), file.Dimension)
		}
	}

	return &flatIndex{
		dimension: file.Dimension,
		vectors:   file.Vectors,
		entries:   file.Entries,
	}, nil
}

// Package blob provides durable remote storage for tenant index files.
// Storage is optional: when no backend is configured the vector index
// simply stays local-only.
package blob

import "context"

// Storage defines the interface for durable remote blob storage.
type Storage interface {
	// Upload copies a local file to the given remote key.
	Upload(ctx context.Context, localPath, remoteKey string) error

	// Download copies a remote object to the given local path, creating
	// parent directories as needed.
	Download(ctx context.Context, remoteKey, localPath string) error

	// Exists reports whether an object is present at the remote key.
	Exists(ctx context.Context, remoteKey string) (bool, error)
}

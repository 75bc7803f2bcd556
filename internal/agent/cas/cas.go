// Package cas provides the content-addressed storage collaborator: put
// bytes, get a content hash; fetch bytes back by hash. Media and metadata
// documents both travel through it on their way to being pinned.
package cas

import "context"

// Storage is the interface the queue manager consumes.
type Storage interface {
	// Put stores data and returns its content hash. Storing identical
	// bytes twice is idempotent and yields the same hash.
	Put(ctx context.Context, data []byte) (string, error)

	// Get fetches data by content hash.
	Get(ctx context.Context, hash string) ([]byte, error)
}

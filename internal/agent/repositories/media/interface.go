// Package media provides the persistence layer for binary attachments owned
// by queued jobs. Blobs live locally only until their content is confirmed
// in content-addressed storage; completed jobs release them.
package media

import (
	"context"

	"github.com/verdantlabs/gardensync/internal/agent/models"
)

// Repository describes blob storage operations keyed by a generated media id.
type Repository interface {
	// Put stores a blob for a job and returns the generated media id.
	Put(ctx context.Context, jobID string, upload models.MediaUpload) (string, error)

	// GetForJob returns all blobs attached to a job, insertion order.
	GetForJob(ctx context.Context, jobID string) ([]*models.MediaBlob, error)

	// DeleteForJob removes every blob attached to a job.
	DeleteForJob(ctx context.Context, jobID string) error
}

package jobs

import (
	"context"
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/models"
)

// Repository describes persistence operations for queued jobs.
// Implementations are backed by a local SQLite database on devices and by
// Postgres on hub deployments. All writes are atomic per job: a concurrent
// reader never observes a half-updated row.
type Repository interface {
	// Create persists a new job.
	Create(ctx context.Context, job *models.Job) error

	// GetByID returns a job by its identifier, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Job, error)

	// ListByStatus returns jobs in the given status, oldest first.
	ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	// ListAll returns every stored job, oldest first.
	ListAll(ctx context.Context) ([]*models.Job, error)

	// ListEligible returns queued jobs whose retry gate has passed as of
	// now, ordered by priority (urgent first) then creation time.
	ListEligible(ctx context.Context, now time.Time) ([]*models.Job, error)

	// MarkProcessing atomically moves a job from queued to processing,
	// honoring the retry gate as of now. It reports false when the job
	// was not claimable, which lets two drain loops race without
	// double-processing.
	MarkProcessing(ctx context.Context, id string, now time.Time) (bool, error)

	// RequeueInFlight moves every processing job back to queued,
	// returning how many were moved. The agent is the only writer of its
	// store, so a processing row found at startup is a claim stranded by
	// a crash.
	RequeueInFlight(ctx context.Context) (int64, error)

	// Update persists the mutable fields of a job (status, attempts,
	// retry gate, tx hash, error, conflict flag).
	Update(ctx context.Context, job *models.Job) error

	// SetConflict flips the reconciliation conflict flag.
	SetConflict(ctx context.Context, id string, conflict bool) error

	// Delete removes a job.
	Delete(ctx context.Context, id string) error

	// CountByStatus aggregates job counts per status.
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)

	// OldestQueuedCreatedAt returns the creation time of the oldest
	// queued job, or nil when the queue is empty.
	OldestQueuedCreatedAt(ctx context.Context) (*time.Time, error)

	// DeleteCompletedBefore removes completed jobs created before the
	// cutoff, returning how many were removed.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

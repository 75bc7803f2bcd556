package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/gardensync/internal/agent/cas"
	"github.com/verdantlabs/gardensync/internal/agent/dedup"
	"github.com/verdantlabs/gardensync/internal/agent/events"
	"github.com/verdantlabs/gardensync/internal/agent/ledger"
	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/jobs"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/media"
	"github.com/verdantlabs/gardensync/internal/agent/retrypolicy"
	"github.com/verdantlabs/gardensync/internal/agent/signer"
	"github.com/verdantlabs/gardensync/internal/common"
	"github.com/verdantlabs/gardensync/internal/logging"
)

// SessionFunc returns the current operator session, or nil when logged out.
type SessionFunc func() *signer.Session

// AtomicFunc runs fn against transaction-scoped repositories so a job and
// its media are removed in one commit. Optional; without it removal falls
// back to sequential deletes.
type AtomicFunc func(ctx context.Context, fn func(jobs.Repository, media.Repository) error) error

// Deps wires the manager's collaborators.
type Deps struct {
	Log       logging.Logger
	Jobs      jobs.Repository
	Media     media.Repository
	Hasher    *dedup.Hasher
	Index     *dedup.Index
	Bus       *events.Bus
	Submitter ledger.Submitter
	Storage   cas.Storage
	Session   SessionFunc
	Atomic    AtomicFunc
}

// Manager owns the offline job queue: it accepts new jobs, persists them,
// drives each one through upload → submit → confirm, applies the retry
// policy, and emits lifecycle events. It is the only component that
// mutates job state.
type Manager struct {
	log       logging.Logger
	jobs      jobs.Repository
	media     media.Repository
	hasher    *dedup.Hasher
	index     *dedup.Index
	bus       *events.Bus
	submitter ledger.Submitter
	storage   cas.Storage
	session   SessionFunc
	atomic    AtomicFunc

	// accounts serializes transaction submission per signing account;
	// most ledgers order transactions by a per-account sequence number,
	// so two in-flight submissions from one account would race it.
	accounts sync.Map

	nudge chan struct{}

	now func() time.Time
}

func NewManager(d Deps) *Manager {
	return &Manager{
		log:       d.Log,
		jobs:      d.Jobs,
		media:     d.Media,
		hasher:    d.Hasher,
		index:     d.Index,
		bus:       d.Bus,
		submitter: d.Submitter,
		storage:   d.Storage,
		session:   d.Session,
		atomic:    d.Atomic,
		nudge:     make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Nudge returns a channel that receives a signal whenever a new job is
// ready for immediate processing; the drain loop selects on it.
func (m *Manager) Nudge() <-chan struct{} { return m.nudge }

// Wake nudges the drain loop into an immediate pass. Connectivity handlers
// call it when the agent comes back online so queued jobs do not wait out
// the remainder of the drain interval.
func (m *Manager) Wake() { m.wake() }

func (m *Manager) wake() {
	select {
	case m.nudge <- struct{}{}:
	default:
	}
}

// AddOptions tunes job admission.
type AddOptions struct {
	Priority models.Priority

	// AllowDuplicate bypasses the local duplicate check when the user has
	// confirmed the resubmission is intentional.
	AllowDuplicate bool
}

// AddJob validates a draft, checks it against the duplicate index, persists
// a queued job with its media, and signals the drain loop. The returned id
// is stable for the job's lifetime.
func (m *Manager) AddJob(ctx context.Context, payload models.Payload, uploads []models.MediaUpload, opts AddOptions) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("%w: payload is required", common.ErrValidation)
	}
	if err := payload.Validate(); err != nil {
		return "", err
	}
	if payload.Kind() == models.JobKindApproval && len(uploads) > 0 {
		return "", fmt.Errorf("%w: approval jobs carry no media", common.ErrValidation)
	}

	sess := m.session()
	if !sess.Valid(m.now()) {
		return "", common.ErrInvalidToken
	}

	hash, err := m.hasher.GenerateContentHash(payload, uploads)
	if err != nil {
		return "", err
	}

	if !opts.AllowDuplicate {
		if match := m.index.Check(hash); match.IsDuplicate {
			return "", &common.DuplicateError{ContentHash: hash, ExistingIDs: match.ExistingIDs}
		}
	}

	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	job := &models.Job{
		ID:          uuid.NewString(),
		Kind:        payload.Kind(),
		Payload:     payload,
		Status:      models.JobStatusQueued,
		Priority:    priority,
		Account:     sess.Account,
		ContentHash: hash,
		CreatedAt:   m.now().UTC(),
	}

	// media first: a visible job row implies its attachments are durable,
	// so a half-written job is never eligible for processing
	for _, u := range uploads {
		if _, err := m.media.Put(ctx, job.ID, u); err != nil {
			m.cleanupMedia(ctx, job.ID)
			return "", err
		}
	}
	if err := m.jobs.Create(ctx, job); err != nil {
		m.cleanupMedia(ctx, job.ID)
		return "", err
	}

	m.index.Add(hash, job.ID)
	m.bus.Emit(events.Event{Type: events.JobQueued, JobID: job.ID})
	m.log.Info(ctx, "job queued", "job_id", job.ID, "kind", job.Kind, "priority", job.Priority)

	m.wake()
	return job.ID, nil
}

func (m *Manager) cleanupMedia(ctx context.Context, jobID string) {
	if err := m.media.DeleteForJob(ctx, jobID); err != nil {
		m.log.Warn(ctx, "failed to clean up media after aborted enqueue", "job_id", jobID, "error", err)
	}
}

// ProcessJob drives a single job through its execution path. It is safe to
// call for an already-completed job (no-op) and safe to call concurrently:
// the queued→processing claim and the per-account lock make double
// submission impossible.
func (m *Manager) ProcessJob(ctx context.Context, id string) error {
	claimed, err := m.jobs.MarkProcessing(ctx, id, m.now().UTC())
	if err != nil {
		return err
	}
	if !claimed {
		job, err := m.jobs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		// completed jobs are never resubmitted; a processing job is
		// owned by another caller; a queued job whose retry gate has not
		// passed stays put until it is due
		switch job.Status {
		case models.JobStatusCompleted, models.JobStatusProcessing, models.JobStatusQueued:
			return nil
		}
		return fmt.Errorf("job %s is not eligible (status %s)", id, job.Status)
	}

	job, err := m.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	sess := m.session()
	if !sess.Valid(m.now()) {
		return m.failAttempt(ctx, job, common.ErrTransactionRejected)
	}

	account := job.Account
	if account == "" {
		account = sess.Account
	}
	lock := m.accountLock(account)
	lock.Lock()
	defer lock.Unlock()

	receipt, err := m.execute(ctx, job, sess)
	if err != nil {
		return m.failAttempt(ctx, job, err)
	}

	// the ledger write is not revocable once a receipt exists, so the
	// local bookkeeping must finish even if the caller has gone away
	ctx = context.WithoutCancel(ctx)

	job.Status = models.JobStatusCompleted
	job.TxHash = receipt.TxHash
	job.LastError = ""
	now := m.now().UTC()
	job.LastAttemptAt = &now
	job.RetryAfter = nil
	job.SubmissionAttempts++
	if err := m.jobs.Update(ctx, job); err != nil {
		// the transaction is on the wire; losing this write must not
		// resubmit, so surface loudly and leave the claim in place
		m.log.Error(ctx, "job completed on ledger but local update failed", "job_id", job.ID, "tx", receipt.TxHash, "error", err)
		return err
	}

	// release media ownership now that the content is pinned
	if err := m.media.DeleteForJob(ctx, job.ID); err != nil {
		m.log.Warn(ctx, "failed to release media for completed job", "job_id", job.ID, "error", err)
	}

	m.bus.Emit(events.Event{Type: events.JobCompleted, JobID: job.ID})
	m.log.Info(ctx, "job completed", "job_id", job.ID, "tx", receipt.TxHash, "attempts", job.SubmissionAttempts)
	return nil
}

// workMetadata is the document pinned to content storage and referenced by
// a work attestation.
type workMetadata struct {
	GardenID    string         `json:"garden_id"`
	ActionID    string         `json:"action_id"`
	Gardener    string         `json:"gardener"`
	Feedback    string         `json:"feedback,omitempty"`
	Inputs      []models.Input `json:"inputs,omitempty"`
	Media       []mediaRef     `json:"media,omitempty"`
	ContentHash string         `json:"content_hash"`
}

type mediaRef struct {
	Hash        string `json:"hash"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (m *Manager) execute(ctx context.Context, job *models.Job, sess *signer.Session) (ledger.TxReceipt, error) {
	switch payload := job.Payload.(type) {
	case *models.WorkDraft:
		blobs, err := m.media.GetForJob(ctx, job.ID)
		if err != nil {
			return ledger.TxReceipt{}, err
		}

		refs := make([]mediaRef, 0, len(blobs))
		for _, blob := range blobs {
			hash, err := m.storage.Put(ctx, blob.Data)
			if err != nil {
				return ledger.TxReceipt{}, err
			}
			refs = append(refs, mediaRef{Hash: hash, Filename: blob.Filename, ContentType: blob.ContentType})
		}

		meta := workMetadata{
			GardenID:    payload.GardenID,
			ActionID:    payload.ActionID,
			Gardener:    sess.GardenerID,
			Feedback:    payload.Feedback,
			Inputs:      payload.Inputs,
			Media:       refs,
			ContentHash: job.ContentHash,
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return ledger.TxReceipt{}, fmt.Errorf("%w: encoding metadata: %w", common.ErrValidation, err)
		}
		metaHash, err := m.storage.Put(ctx, metaJSON)
		if err != nil {
			return ledger.TxReceipt{}, err
		}

		return m.submitter.SubmitTransaction(ctx, ledger.Submission{
			Kind:         models.JobKindWork,
			GardenID:     payload.GardenID,
			ActionID:     payload.ActionID,
			MetadataHash: metaHash,
			Feedback:     payload.Feedback,
			ContentHash:  job.ContentHash,
		}, sess)

	case *models.ApprovalDraft:
		return m.submitter.SubmitTransaction(ctx, ledger.Submission{
			Kind:        models.JobKindApproval,
			WorkID:      payload.WorkID,
			Approved:    payload.Approved,
			Feedback:    payload.Feedback,
			ContentHash: job.ContentHash,
		}, sess)

	default:
		return ledger.TxReceipt{}, fmt.Errorf("%w: unknown payload type %T", common.ErrValidation, job.Payload)
	}
}

// failAttempt records a failed processing attempt and decides the job's
// next state: back to queued with a retry gate, or terminally failed.
func (m *Manager) failAttempt(ctx context.Context, job *models.Job, cause error) error {
	now := m.now().UTC()
	job.SubmissionAttempts++
	job.LastAttemptAt = &now
	job.LastError = cause.Error()

	retryable := errors.Is(cause, common.ErrTransientNetwork) || errors.Is(cause, common.ErrQueryTimeout)

	if retryable {
		decision := retrypolicy.NextAttempt(job.SubmissionAttempts, job.Priority)
		if !decision.GiveUp {
			retryAt := now.Add(decision.Delay)
			job.Status = models.JobStatusQueued
			job.RetryAfter = &retryAt
			if err := m.jobs.Update(ctx, job); err != nil {
				return err
			}
			m.log.Warn(ctx, "job attempt failed, scheduled retry",
				"job_id", job.ID, "attempts", job.SubmissionAttempts, "retry_after", retryAt, "error", cause)
			return cause
		}
		cause = fmt.Errorf("%w: %w", common.ErrTerminalSubmission, cause)
		job.LastError = cause.Error()
	}

	job.Status = models.JobStatusFailed
	job.RetryAfter = nil
	if err := m.jobs.Update(ctx, job); err != nil {
		return err
	}

	m.bus.Emit(events.Event{Type: events.JobFailed, JobID: job.ID, Err: cause})
	m.log.Error(ctx, "job failed", "job_id", job.ID, "attempts", job.SubmissionAttempts, "error", cause)
	return cause
}

func (m *Manager) accountLock(account string) *sync.Mutex {
	lock, _ := m.accounts.LoadOrStore(account, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Stats aggregates queue counts for UI badges.
type Stats struct {
	Queued          int
	Processing      int
	Completed       int
	Failed          int
	OldestQueuedAge time.Duration
}

func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	counts, err := m.jobs.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Queued:     counts[models.JobStatusQueued],
		Processing: counts[models.JobStatusProcessing],
		Completed:  counts[models.JobStatusCompleted],
		Failed:     counts[models.JobStatusFailed],
	}

	if stats.Queued > 0 {
		oldest, err := m.jobs.OldestQueuedCreatedAt(ctx)
		if err != nil {
			return Stats{}, err
		}
		if oldest != nil {
			stats.OldestQueuedAge = m.now().UTC().Sub(*oldest)
		}
	}
	return stats, nil
}

// RetryJob gives a failed job a fresh attempt budget and re-queues it.
func (m *Manager) RetryJob(ctx context.Context, id string) error {
	job, err := m.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusFailed {
		return fmt.Errorf("%w: job %s is %s, only failed jobs can be retried", common.ErrValidation, id, job.Status)
	}

	job.Status = models.JobStatusQueued
	job.SubmissionAttempts = 0
	job.RetryAfter = nil
	if err := m.jobs.Update(ctx, job); err != nil {
		return err
	}

	m.bus.Emit(events.Event{Type: events.JobQueued, JobID: job.ID})
	m.wake()
	return nil
}

// SkipJob marks a job user-skipped and destroys it immediately, together
// with its media and duplicate-index entry.
func (m *Manager) SkipJob(ctx context.Context, id string) error {
	job, err := m.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == models.JobStatusProcessing {
		return fmt.Errorf("%w: job %s is being processed", common.ErrValidation, id)
	}

	job.UserSkipped = true
	if err := m.jobs.Update(ctx, job); err != nil {
		return err
	}
	return m.destroy(ctx, job)
}

// DiscardJob removes a failed or completed job the user no longer wants.
func (m *Manager) DiscardJob(ctx context.Context, id string) error {
	job, err := m.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == models.JobStatusProcessing || job.Status == models.JobStatusQueued {
		return fmt.Errorf("%w: job %s is still %s, skip it instead", common.ErrValidation, id, job.Status)
	}
	return m.destroy(ctx, job)
}

func (m *Manager) destroy(ctx context.Context, job *models.Job) error {
	remove := func(j jobs.Repository, md media.Repository) error {
		if err := md.DeleteForJob(ctx, job.ID); err != nil {
			return err
		}
		return j.Delete(ctx, job.ID)
	}

	var err error
	if m.atomic != nil {
		err = m.atomic(ctx, remove)
	} else {
		err = remove(m.jobs, m.media)
	}
	if err != nil {
		return err
	}
	m.index.Remove(job.ContentHash)
	m.log.Info(ctx, "job removed", "job_id", job.ID, "skipped", job.UserSkipped)
	return nil
}

// Cleanup deletes completed jobs past the retention window.
func (m *Manager) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := m.now().UTC().Add(-retention)
	n, err := m.jobs.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		m.log.Info(ctx, "retention cleanup removed completed jobs", "count", n)
	}
	return nil
}

// Reconcile flags local jobs whose content already exists in the remote
// record set. The flag is advisory; the merge view suppresses the local
// copy, and the user decides whether to skip the job.
func (m *Manager) Reconcile(ctx context.Context, remoteWorks []models.WorkRecord) error {
	byHash := make(map[string]struct{}, len(remoteWorks))
	for _, w := range remoteWorks {
		if w.ContentHash != "" {
			byHash[w.ContentHash] = struct{}{}
		}
	}

	local, err := m.jobs.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, job := range local {
		if job.Kind != models.JobKindWork || job.ConflictDetected {
			continue
		}
		if job.Status != models.JobStatusQueued && job.Status != models.JobStatusFailed {
			continue
		}
		if _, ok := byHash[job.ContentHash]; !ok {
			continue
		}
		if err := m.jobs.SetConflict(ctx, job.ID, true); err != nil {
			return err
		}
		m.bus.Emit(events.Event{Type: events.JobConflict, JobID: job.ID})
		m.log.Warn(ctx, "local job duplicates a remote record", "job_id", job.ID, "content_hash", job.ContentHash)
	}
	return nil
}

// ListJobs returns every stored job, oldest first.
func (m *Manager) ListJobs(ctx context.Context) ([]*models.Job, error) {
	return m.jobs.ListAll(ctx)
}

// ListEligible returns the queued jobs the drain loop should process now.
func (m *Manager) ListEligible(ctx context.Context) ([]*models.Job, error) {
	return m.jobs.ListEligible(ctx, m.now().UTC())
}

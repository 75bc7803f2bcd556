// Package models defines the sync agent's domain types: queued jobs and
// their payloads, attached media, remote ledger records, and the merged
// view consumed by the UI.
package models

import "time"

// JobKind classifies the work a job performs when processed.
type JobKind string

const (
	JobKindWork     JobKind = "work"
	JobKindApproval JobKind = "approval"
)

// JobStatus is the job state machine position. Valid transitions:
// queued → processing → completed, or processing → queued (retry) /
// failed (terminal). A completed job never re-enters the queue.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Priority affects drain order and how aggressively a job is retried.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Weight orders priorities for drain scheduling; higher drains first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// Job is the unit of queued work. The queue manager owns all status and
// attempt fields; reconciliation owns the conflict flag.
type Job struct {
	ID      string
	Kind    JobKind
	Payload Payload

	Status   JobStatus
	Priority Priority

	// Account is the signing account this job's transaction is submitted
	// from. Jobs sharing an account must never submit concurrently.
	Account string

	SubmissionAttempts int
	LastAttemptAt      *time.Time
	RetryAfter         *time.Time

	ContentHash string
	TxHash      string
	LastError   string

	ConflictDetected bool
	UserSkipped      bool

	CreatedAt time.Time
}

// Eligible reports whether the job may be picked up by the drain loop.
func (j *Job) Eligible(now time.Time) bool {
	if j.Status != JobStatusQueued {
		return false
	}
	return j.RetryAfter == nil || !now.Before(*j.RetryAfter)
}

package models

import "time"

// WorkRecord is an attested work submission as returned by the indexer.
type WorkRecord struct {
	ID          string
	GardenID    string
	ActionID    string
	Gardener    string
	Feedback    string
	MediaURIs   []string
	ContentHash string
	TxHash      string
	CreatedAt   time.Time
}

// ApprovalRecord is an attested approval decision as returned by the indexer.
type ApprovalRecord struct {
	ID        string
	WorkID    string
	Operator  string
	Approved  bool
	Feedback  string
	CreatedAt time.Time
}

// WorkStatus is the effective review state of a work submission.
type WorkStatus string

const (
	WorkStatusPending  WorkStatus = "pending"
	WorkStatusApproved WorkStatus = "approved"
	WorkStatusRejected WorkStatus = "rejected"
)

// MergedWorkRecord is the derived union of a remote work record and/or a
// local job describing the same submission. It is computed fresh on every
// read and never persisted.
type MergedWorkRecord struct {
	ID        string
	GardenID  string
	ActionID  string
	Gardener  string
	Feedback  string
	MediaURIs []string

	Status WorkStatus

	// IsOffline marks a record synthesized from a local job that has not
	// been submitted to the ledger yet.
	IsOffline bool

	// IsSyncing marks a record synthesized from a completed local job the
	// indexer has not caught up with yet. The attestation exists; only the
	// indexed copy is lagging.
	IsSyncing bool

	// StatusFromLocal marks an effective status produced by a locally
	// queued approval rather than an indexed one, so the UI can show a
	// syncing indicator instead of a final state.
	StatusFromLocal bool

	// JobID is set when a local job contributed to this record.
	JobID string

	CreatedAt time.Time
}

// Package ledger defines the agent's view of the attestation ledger: a
// Submitter for the write path (via the relayer) and a Reader for the read
// path (via the indexer). The core treats both as opaque collaborators —
// submit a transaction and get a receipt or a typed failure; query records
// and get a possibly-empty list.
package ledger

import (
	"context"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/signer"
)

// Submission is the transaction payload assembled by the queue manager.
// Exactly one of the work/approval field groups is meaningful, selected by
// Kind.
type Submission struct {
	Kind models.JobKind `json:"kind"`

	// Work submission fields.
	GardenID     string `json:"garden_id,omitempty"`
	ActionID     string `json:"action_id,omitempty"`
	MetadataHash string `json:"metadata_hash,omitempty"`

	// Approval fields.
	WorkID   string `json:"work_id,omitempty"`
	Approved bool   `json:"approved,omitempty"`

	Feedback    string `json:"feedback,omitempty"`
	ContentHash string `json:"content_hash"`
}

// TxReceipt identifies a broadcast transaction.
type TxReceipt struct {
	TxHash string `json:"tx_hash"`
}

// Submitter broadcasts attestation transactions. A non-nil error is one of
// the common taxonomy errors; a returned receipt means the transaction is
// on the wire and must never be resubmitted.
type Submitter interface {
	SubmitTransaction(ctx context.Context, sub Submission, sess *signer.Session) (TxReceipt, error)
}

// Reader queries the attestation indexer. Empty results are valid. Every
// call is bounded by the reader's query timeout and returns
// common.ErrQueryTimeout instead of hanging.
type Reader interface {
	GetWorks(ctx context.Context, gardenID string) ([]models.WorkRecord, error)
	GetApprovals(ctx context.Context, gardenID string) ([]models.ApprovalRecord, error)
}

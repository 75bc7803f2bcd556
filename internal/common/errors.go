// Package common defines shared constants and sentinel errors used across
// the sync agent. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrIO       = errors.New("storage i/o error")

	// Submission errors surfaced by the queue manager.
	ErrValidation          = errors.New("validation error")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrTransientNetwork    = errors.New("transient network error")
	ErrTransactionRejected = errors.New("transaction rejected by signer")
	ErrTerminalSubmission  = errors.New("submission attempts exhausted")

	// Ledger read path.
	ErrQueryTimeout = errors.New("indexer query timed out")

	// Session / signer errors.
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// DuplicateError reports that a draft's content hash matches jobs that are
// already queued or submitted. It unwraps to ErrDuplicateSubmission.
type DuplicateError struct {
	ContentHash string
	ExistingIDs []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate submission (hash %s, %d existing)", e.ContentHash, len(e.ExistingIDs))
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateSubmission }

// Package dedup derives stable content fingerprints from submission drafts
// and keeps a short-lived local cache of known fingerprints so duplicate
// taps or post-crash re-queues never become two ledger writes.
package dedup

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/sha3"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/common"
)

// Hasher computes deterministic content hashes over the semantically
// significant fields of a draft. The digest is Keccak-256, the same family
// the attestation layer uses; attached media, when included, contributes a
// cheap xxhash64 per blob rather than hashing full bytes twice.
type Hasher struct {
	chainID      int64
	includeMedia bool
}

// NewHasher constructs a Hasher for the given chain. includeMedia controls
// whether attachment bytes participate in the fingerprint; the check is
// advisory, so this is a configuration choice rather than fixed behavior.
func NewHasher(chainID int64, includeMedia bool) *Hasher {
	return &Hasher{chainID: chainID, includeMedia: includeMedia}
}

// GenerateContentHash returns the hex fingerprint of a draft. Equal inputs
// always yield equal hashes.
func (h *Hasher) GenerateContentHash(p models.Payload, media []models.MediaUpload) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "chain:%d", h.chainID)

	switch d := p.(type) {
	case *models.WorkDraft:
		fmt.Fprintf(&b, "|kind:work|garden:%s|action:%s|feedback:%s", d.GardenID, d.ActionID, d.Feedback)
		for _, in := range d.Inputs {
			fmt.Fprintf(&b, "|input:%s=%s", in.Name, in.Value)
		}
	case *models.ApprovalDraft:
		fmt.Fprintf(&b, "|kind:approval|work:%s|approved:%t|feedback:%s", d.WorkID, d.Approved, d.Feedback)
	default:
		return "", fmt.Errorf("%w: unsupported payload type %T", common.ErrValidation, p)
	}

	if h.includeMedia {
		for _, m := range media {
			fmt.Fprintf(&b, "|media:%016x", xxhash.Sum64(m.Data))
		}
	}

	digest := sha3.NewLegacyKeccak256()
	digest.Write([]byte(b.String()))
	return hex.EncodeToString(digest.Sum(nil)), nil
}

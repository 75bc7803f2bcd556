package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdantlabs/gardensync/internal/common"
)

// Payload is the kind-specific draft data carried by a job. Exactly two
// implementations exist; code processing a job switches exhaustively on the
// concrete type.
type Payload interface {
	// Kind reports which job kind this payload belongs to.
	Kind() JobKind

	// Validate checks payload shape before a job is accepted. Errors wrap
	// common.ErrValidation and are never retried.
	Validate() error
}

// Input is a structured name/value pair captured with a work submission
// (e.g. "plants=12", "height_cm=40").
type Input struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InputsFromStrings parses "name=value" items into Inputs.
func InputsFromStrings(items []string) ([]Input, error) {
	inputs := make([]Input, len(items))
	for n, item := range items {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("%w: input item must be name=value", common.ErrValidation)
		}
		inputs[n] = Input{Name: parts[0], Value: parts[1]}
	}
	return inputs, nil
}

// WorkDraft is the payload of a JobKindWork job: a new field submission.
type WorkDraft struct {
	GardenID string  `json:"garden_id"`
	ActionID string  `json:"action_id"`
	Feedback string  `json:"feedback"`
	Inputs   []Input `json:"inputs,omitempty"`
}

func (d *WorkDraft) Kind() JobKind { return JobKindWork }

func (d *WorkDraft) Validate() error {
	if d.GardenID == "" {
		return fmt.Errorf("%w: garden id is required", common.ErrValidation)
	}
	if d.ActionID == "" {
		return fmt.Errorf("%w: action id is required", common.ErrValidation)
	}
	return nil
}

// ApprovalDraft is the payload of a JobKindApproval job: an operator's
// accept/reject decision on an existing work submission.
type ApprovalDraft struct {
	WorkID   string `json:"work_id"`
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

func (d *ApprovalDraft) Kind() JobKind { return JobKindApproval }

func (d *ApprovalDraft) Validate() error {
	if d.WorkID == "" {
		return fmt.Errorf("%w: target work id is required", common.ErrValidation)
	}
	return nil
}

// EncodePayload serializes a payload for storage.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload restores a payload from its stored form using the job kind
// as the variant tag.
func DecodePayload(kind JobKind, data []byte) (Payload, error) {
	switch kind {
	case JobKindWork:
		var d WorkDraft
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode work payload: %w", err)
		}
		return &d, nil
	case JobKindApproval:
		var d ApprovalDraft
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode approval payload: %w", err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("%w: unknown job kind %q", common.ErrValidation, kind)
	}
}

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/common"
)

// DefaultQueryTimeout bounds each indexer query; a stalled indexer surfaces
// as common.ErrQueryTimeout rather than a hang.
const DefaultQueryTimeout = 12 * time.Second

const worksQuery = `query ($garden: String) {
  works(gardenId: $garden) {
    id gardenId actionId gardener feedback mediaURIs contentHash txHash createdAt
  }
}`

const approvalsQuery = `query ($garden: String) {
  approvals(gardenId: $garden) {
    id workId operator approved feedback createdAt
  }
}`

// IndexerReader implements Reader against the GraphQL attestation indexer.
// Queries are idempotent, so each one is retried a couple of times with
// fibonacci backoff before the error is surfaced; the queue's own retry
// policy sits above this and handles longer outages.
type IndexerReader struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

func NewIndexerReader(endpoint string, timeout time.Duration) *IndexerReader {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &IndexerReader{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type workDTO struct {
	ID          string   `json:"id"`
	GardenID    string   `json:"gardenId"`
	ActionID    string   `json:"actionId"`
	Gardener    string   `json:"gardener"`
	Feedback    string   `json:"feedback"`
	MediaURIs   []string `json:"mediaURIs"`
	ContentHash string   `json:"contentHash"`
	TxHash      string   `json:"txHash"`
	CreatedAt   string   `json:"createdAt"`
}

type approvalDTO struct {
	ID        string `json:"id"`
	WorkID    string `json:"workId"`
	Operator  string `json:"operator"`
	Approved  bool   `json:"approved"`
	Feedback  string `json:"feedback"`
	CreatedAt string `json:"createdAt"`
}

func (r *IndexerReader) GetWorks(ctx context.Context, gardenID string) ([]models.WorkRecord, error) {
	var payload struct {
		Data struct {
			Works []workDTO `json:"works"`
		} `json:"data"`
	}
	if err := r.query(ctx, worksQuery, gardenID, &payload); err != nil {
		return nil, err
	}

	works := make([]models.WorkRecord, 0, len(payload.Data.Works))
	for _, dto := range payload.Data.Works {
		works = append(works, models.WorkRecord{
			ID:          dto.ID,
			GardenID:    dto.GardenID,
			ActionID:    dto.ActionID,
			Gardener:    dto.Gardener,
			Feedback:    dto.Feedback,
			MediaURIs:   dto.MediaURIs,
			ContentHash: dto.ContentHash,
			TxHash:      dto.TxHash,
			CreatedAt:   parseTimestamp(dto.CreatedAt),
		})
	}
	return works, nil
}

func (r *IndexerReader) GetApprovals(ctx context.Context, gardenID string) ([]models.ApprovalRecord, error) {
	var payload struct {
		Data struct {
			Approvals []approvalDTO `json:"approvals"`
		} `json:"data"`
	}
	if err := r.query(ctx, approvalsQuery, gardenID, &payload); err != nil {
		return nil, err
	}

	approvals := make([]models.ApprovalRecord, 0, len(payload.Data.Approvals))
	for _, dto := range payload.Data.Approvals {
		approvals = append(approvals, models.ApprovalRecord{
			ID:        dto.ID,
			WorkID:    dto.WorkID,
			Operator:  dto.Operator,
			Approved:  dto.Approved,
			Feedback:  dto.Feedback,
			CreatedAt: parseTimestamp(dto.CreatedAt),
		})
	}
	return approvals, nil
}

func (r *IndexerReader) query(ctx context.Context, query, gardenID string, out any) error {
	body, err := json.Marshal(graphqlRequest{
		Query:     query,
		Variables: map[string]any{"garden": gardenID},
	})
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(qctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(qctx.Err(), context.DeadlineExceeded) {
				return retry.RetryableError(common.ErrQueryTimeout)
			}
			return retry.RetryableError(fmt.Errorf("%w: %w", common.ErrTransientNetwork, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("%w: indexer responded %s", common.ErrTransientNetwork, resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding indexer response: %w", common.ErrTransientNetwork, err)
		}
		return nil
	})
	return err
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ Reader = (*IndexerReader)(nil)

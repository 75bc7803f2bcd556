package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/signer"
	"github.com/verdantlabs/gardensync/internal/common"
)

const submitTimeout = 30 * time.Second

// RelayerSubmitter implements Submitter against the HTTP attestation
// relayer. The relayer signs and broadcasts on behalf of the session's
// account; the agent only ever sees a receipt or a typed failure.
type RelayerSubmitter struct {
	baseURL string
	client  *http.Client
}

func NewRelayerSubmitter(baseURL string) *RelayerSubmitter {
	return &RelayerSubmitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: submitTimeout},
	}
}

func (r *RelayerSubmitter) SubmitTransaction(ctx context.Context, sub Submission, sess *signer.Session) (TxReceipt, error) {
	if !sess.Valid(time.Now()) {
		return TxReceipt{}, common.ErrTransactionRejected
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return TxReceipt{}, fmt.Errorf("%w: encoding submission: %w", common.ErrValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/attestations", bytes.NewReader(body))
	if err != nil {
		return TxReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.SessionTokenHeaderName, "Bearer "+sess.Token)

	resp, err := r.client.Do(req)
	if err != nil {
		return TxReceipt{}, fmt.Errorf("%w: %w", common.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var receipt TxReceipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return TxReceipt{}, fmt.Errorf("%w: decoding receipt: %w", common.ErrTransientNetwork, err)
		}
		if receipt.TxHash == "" {
			return TxReceipt{}, fmt.Errorf("%w: relayer returned empty tx hash", common.ErrTransientNetwork)
		}
		return receipt, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return TxReceipt{}, fmt.Errorf("%w: %s", common.ErrValidation, readError(resp.Body))

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return TxReceipt{}, fmt.Errorf("%w: %s", common.ErrTransactionRejected, readError(resp.Body))

	default:
		return TxReceipt{}, fmt.Errorf("%w: relayer responded %s", common.ErrTransientNetwork, resp.Status)
	}
}

func readError(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 1024))
	if len(b) == 0 {
		return "no details"
	}
	return string(b)
}

var _ Submitter = (*RelayerSubmitter)(nil)

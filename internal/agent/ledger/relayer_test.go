package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/signer"
	"github.com/verdantlabs/gardensync/internal/common"
)

var testSecret = []byte("relayer-test-secret")

func testSession(t *testing.T, validity time.Duration) *signer.Session {
	t.Helper()
	token, err := signer.GenerateToken("0xabc", "g1", testSecret, validity)
	require.NoError(t, err)
	sess, err := signer.ParseSession(token, testSecret)
	if validity < 0 {
		// expired tokens cannot be parsed; build the session directly
		return &signer.Session{Token: token, Account: "0xabc", ExpiresAt: time.Now().Add(validity)}
	}
	require.NoError(t, err)
	return sess
}

func TestSubmitTransaction_Success(t *testing.T) {
	var gotAuth string
	var gotSub Submission

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/attestations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSub))
		_ = json.NewEncoder(w).Encode(TxReceipt{TxHash: "0xfeed"})
	}))
	defer srv.Close()

	sess := testSession(t, time.Hour)
	sub := Submission{
		Kind:        models.JobKindWork,
		GardenID:    "garden-1",
		ActionID:    "action-1",
		ContentHash: "h1",
	}

	receipt, err := NewRelayerSubmitter(srv.URL).SubmitTransaction(context.Background(), sub, sess)
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", receipt.TxHash)
	assert.Equal(t, "Bearer "+sess.Token, gotAuth)
	assert.Equal(t, sub, gotSub)
}

func TestSubmitTransaction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"bad request is validation", http.StatusBadRequest, common.ErrValidation},
		{"unauthorized is rejection", http.StatusUnauthorized, common.ErrTransactionRejected},
		{"forbidden is rejection", http.StatusForbidden, common.ErrTransactionRejected},
		{"server error is transient", http.StatusInternalServerError, common.ErrTransientNetwork},
		{"gateway timeout is transient", http.StatusGatewayTimeout, common.ErrTransientNetwork},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			_, err := NewRelayerSubmitter(srv.URL).SubmitTransaction(
				context.Background(), Submission{}, testSession(t, time.Hour))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubmitTransaction_UnreachableIsTransient(t *testing.T) {
	_, err := NewRelayerSubmitter("http://127.0.0.1:1").SubmitTransaction(
		context.Background(), Submission{}, testSession(t, time.Hour))
	assert.ErrorIs(t, err, common.ErrTransientNetwork)
}

func TestSubmitTransaction_ExpiredSessionRejectedLocally(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	_, err := NewRelayerSubmitter(srv.URL).SubmitTransaction(
		context.Background(), Submission{}, testSession(t, -time.Minute))
	assert.ErrorIs(t, err, common.ErrTransactionRejected)
	assert.Zero(t, calls, "expired session must not reach the relayer")
}

func TestSubmitTransaction_EmptyReceiptIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TxReceipt{})
	}))
	defer srv.Close()

	_, err := NewRelayerSubmitter(srv.URL).SubmitTransaction(
		context.Background(), Submission{}, testSession(t, time.Hour))
	assert.ErrorIs(t, err, common.ErrTransientNetwork)
}

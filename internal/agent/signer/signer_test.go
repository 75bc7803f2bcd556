package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/gardensync/internal/common"
)

var secret = []byte("test-secret")

func TestParseSession_RoundTrip(t *testing.T) {
	token, err := GenerateToken("0xabc", "gardener-1", secret, time.Hour)
	require.NoError(t, err)

	sess, err := ParseSession(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", sess.Account)
	assert.Equal(t, "gardener-1", sess.GardenerID)
	assert.True(t, sess.Valid(time.Now()))
	assert.False(t, sess.Valid(time.Now().Add(2*time.Hour)))
}

func TestParseSession_Expired(t *testing.T) {
	token, err := GenerateToken("0xabc", "g1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseSession(token, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseSession_WrongSecret(t *testing.T) {
	token, err := GenerateToken("0xabc", "g1", secret, time.Hour)
	require.NoError(t, err)

	_, err = ParseSession(token, []byte("other"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseSession_MissingAccount(t *testing.T) {
	token, err := GenerateToken("", "g1", secret, time.Hour)
	require.NoError(t, err)

	_, err = ParseSession(token, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSessionValid_NilReceiver(t *testing.T) {
	var s *Session
	assert.False(t, s.Valid(time.Now()))
}

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken(&SessionClaims{
		AccountID: 7,
		APIKey:    "key",
		Flashes:   []Flash{{Category: "success", Message: "saved"}},
	}, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := VerifySessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
	assert.Equal(t, "key", claims.APIKey)
	assert.Equal(t, []Flash{{Category: "success", Message: "saved"}}, claims.Flashes)
}

func TestSessionTokenRejectsTamperingAndExpiry(t *testing.T) {
	token, err := GenerateSessionToken(&SessionClaims{AccountID: 1}, "secret", time.Hour)
	require.NoError(t, err)

	_, err = VerifySessionToken(token, "other-secret")
	assert.Error(t, err)

	_, err = VerifySessionToken(token+"x", "secret")
	assert.Error(t, err)

	expired, err := GenerateSessionToken(&SessionClaims{AccountID: 1}, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = VerifySessionToken(expired, "secret")
	assert.Error(t, err)
}

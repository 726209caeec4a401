package services

import (
	"testing"
	"time"

	"driveuploader/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCredentialsPrefersOAuth(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	account := &models.Account{ID: 7, AccessToken: "access", RefreshToken: "refresh", TokenExpiry: &expiry}

	creds, err := ResolveCredentials(account, StoredAPICredentials{APIKey: "key", ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	assert.True(t, creds.UsesOAuth())
	assert.Equal(t, "access", creds.AccessToken)
	assert.Equal(t, "refresh", creds.RefreshToken)
	assert.Equal(t, expiry, creds.Expiry)
	assert.Equal(t, int64(7), creds.AccountID)
	assert.Empty(t, creds.APIKey)
}

func TestResolveCredentialsOAuthWithoutStoredKey(t *testing.T) {
	creds, err := ResolveCredentials(&models.Account{AccessToken: "access"}, StoredAPICredentials{})
	require.NoError(t, err)
	assert.True(t, creds.UsesOAuth())
}

func TestResolveCredentialsFallsBackToStoredKey(t *testing.T) {
	stored := StoredAPICredentials{APIKey: "key", ClientID: "id", ClientSecret: "secret"}

	for name, account := range map[string]*models.Account{
		"anonymous":          nil,
		"account sans token": {Email: "a@example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			creds, err := ResolveCredentials(account, stored)
			require.NoError(t, err)
			assert.False(t, creds.UsesOAuth())
			assert.Equal(t, "key", creds.APIKey)
			assert.Equal(t, "id", creds.ClientID)
			assert.Equal(t, "secret", creds.ClientSecret)
		})
	}
}

func TestResolveCredentialsMissing(t *testing.T) {
	_, err := ResolveCredentials(nil, StoredAPICredentials{ClientID: "id"})
	assert.ErrorIs(t, err, ErrCredentialMissing)

	_, err = ResolveCredentials(&models.Account{}, StoredAPICredentials{})
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

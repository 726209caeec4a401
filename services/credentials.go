package services

import (
	"time"

	"driveuploader/models"
)

// DriveCredentials is the credential set a single request reaches Drive with.
type DriveCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	// AccountID is the account the OAuth tokens belong to.
	AccountID int64

	APIKey       string
	ClientID     string
	ClientSecret string
}

// UsesOAuth reports whether the credentials carry a user access token.
func (c DriveCredentials) UsesOAuth() bool {
	return c.AccessToken != ""
}

// StoredAPICredentials is the key triple a user entered on the setup page.
type StoredAPICredentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
}

func (s StoredAPICredentials) Complete() bool {
	return s.APIKey != "" && s.ClientID != "" && s.ClientSecret != ""
}

// ResolveCredentials picks the credential source for a request. A logged in
// account with an access token wins over the stored API key; with neither
// the request cannot reach Drive.
func ResolveCredentials(account *models.Account, stored StoredAPICredentials) (DriveCredentials, error) {
	if account.HasOAuthToken() {
		creds := DriveCredentials{
			AccessToken:  account.AccessToken,
			RefreshToken: account.RefreshToken,
			AccountID:    account.ID,
		}
		if account.TokenExpiry != nil {
			creds.Expiry = *account.TokenExpiry
		}
		return creds, nil
	}

	if stored.APIKey != "" {
		return DriveCredentials{
			APIKey:       stored.APIKey,
			ClientID:     stored.ClientID,
			ClientSecret: stored.ClientSecret,
		}, nil
	}

	return DriveCredentials{}, ErrCredentialMissing
}

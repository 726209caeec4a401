package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"driveuploader/models"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountRepository persists the accounts created by Google login.
type AccountRepository interface {
	// UpsertGoogleAccount creates the account for profile.Email or refreshes
	// its tokens. An empty refresh token never replaces a stored one.
	UpsertGoogleAccount(ctx context.Context, profile models.GoogleProfile, tokens models.OAuthTokens) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	// UpdateTokens stores tokens refreshed outside a login. Same refresh
	// token rule as UpsertGoogleAccount.
	UpdateTokens(ctx context.Context, id int64, tokens models.OAuthTokens) error
	Close(ctx context.Context) error
}

// NewAccountRepository picks the backend from the DATABASE_URL scheme:
// mongodb:// and mongodb+srv:// use MongoDB, sqlite:// (or a bare path) uses
// SQLite.
func NewAccountRepository(ctx context.Context, databaseURL, databaseName string) (AccountRepository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return NewMongoAccountRepository(ctx, databaseURL, databaseName)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return OpenSQLAccountRepository(strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.Contains(databaseURL, "://"):
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %s", strings.SplitN(databaseURL, "://", 2)[0])
	default:
		return OpenSQLAccountRepository(databaseURL)
	}
}

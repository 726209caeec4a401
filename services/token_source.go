package services

import (
	"context"
	"fmt"
	"sync"

	"driveuploader/models"
	"driveuploader/utils"

	"golang.org/x/oauth2"
)

// TokenStore saves tokens refreshed while a request talks to Drive.
type TokenStore interface {
	UpdateTokens(ctx context.Context, id int64, tokens models.OAuthTokens) error
}

// persistingTokenSource writes every new access token from base back to the
// account. A failed save is logged; the request keeps the fresh token.
type persistingTokenSource struct {
	ctx       context.Context
	base      oauth2.TokenSource
	store     TokenStore
	accountID int64

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(ctx context.Context, initial *oauth2.Token, base oauth2.TokenSource, store TokenStore, accountID int64) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(initial, &persistingTokenSource{
		ctx:       ctx,
		base:      base,
		store:     store,
		accountID: accountID,
		last:      initial.AccessToken,
	})
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	tokens := models.OAuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if err := s.store.UpdateTokens(s.ctx, s.accountID, tokens); err != nil {
		utils.LogError(fmt.Sprintf("[DriveService] Failed to save refreshed token for account %d", s.accountID), err)
	} else {
		utils.LogInfo(fmt.Sprintf("[DriveService] Saved refreshed token for account %d", s.accountID))
	}
	return tok, nil
}

package models

import (
	"strings"
	"time"
)

// Account is a local identity tied to a Google login.
type Account struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" bson:"_id" json:"id"`
	Username     string     `gorm:"size:64;not null" bson:"username" json:"username"`
	Email        string     `gorm:"size:120;not null;uniqueIndex" bson:"email" json:"email"`
	GoogleID     *string    `gorm:"size:120;uniqueIndex" bson:"google_id,omitempty" json:"google_id,omitempty"`
	AccessToken  string     `gorm:"type:text" bson:"access_token,omitempty" json:"-"`
	RefreshToken string     `gorm:"type:text" bson:"refresh_token,omitempty" json:"-"`
	TokenExpiry  *time.Time `bson:"token_expiry,omitempty" json:"token_expiry,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// HasOAuthToken reports whether the account can be used to reach Drive
// on the user's behalf.
func (a *Account) HasOAuthToken() bool {
	return a != nil && a.AccessToken != ""
}

// GoogleProfile is the identity returned by the provider's userinfo endpoint.
type GoogleProfile struct {
	Subject   string
	Email     string
	GivenName string
	Name      string
}

// DisplayName prefers the given name and falls back to the email local part.
func (p GoogleProfile) DisplayName() string {
	if p.GivenName != "" {
		return p.GivenName
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok {
		return local
	}
	return p.Email
}

// OAuthTokens are the tokens granted during a login.
type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

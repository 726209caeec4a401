package middleware

import (
	"net/http"
	"time"

	"driveuploader/utils"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "session"
	sessionContextKey = "session"
)

// Session is the per-request view of the signed session cookie. Handlers
// change it and call SessionManager.Save before writing the response.
type Session struct {
	claims utils.SessionClaims
}

func (s *Session) AccountID() int64 {
	return s.claims.AccountID
}

func (s *Session) SetAccountID(id int64) {
	s.claims.AccountID = id
}

func (s *Session) APICredentials() (apiKey, clientID, clientSecret string) {
	return s.claims.APIKey, s.claims.ClientID, s.claims.ClientSecret
}

func (s *Session) SetAPICredentials(apiKey, clientID, clientSecret string) {
	s.claims.APIKey = apiKey
	s.claims.ClientID = clientID
	s.claims.ClientSecret = clientSecret
}

func (s *Session) OAuthState() string {
	return s.claims.OAuthState
}

func (s *Session) SetOAuthState(state string) {
	s.claims.OAuthState = state
}

func (s *Session) AddFlash(category, message string) {
	s.claims.Flashes = append(s.claims.Flashes, utils.Flash{Category: category, Message: message})
}

// PopFlashes returns the pending flashes and clears them.
func (s *Session) PopFlashes() []utils.Flash {
	flashes := s.claims.Flashes
	s.claims.Flashes = nil
	return flashes
}

type SessionManager struct {
	secret     string
	expiration time.Duration
	secure     bool
}

func NewSessionManager(secret string, expiration time.Duration, secure bool) *SessionManager {
	return &SessionManager{secret: secret, expiration: expiration, secure: secure}
}

// Middleware loads the session cookie. Missing, tampered or expired cookies
// yield an empty session.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := &Session{}
		if raw, err := c.Cookie(SessionCookieName); err == nil && raw != "" {
			if claims, err := utils.VerifySessionToken(raw, m.secret); err == nil {
				session.claims = *claims
			} else {
				utils.LogWarning("[Session] Discarding invalid session cookie: " + err.Error())
			}
		}
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// Save writes the session back as a signed cookie.
func (m *SessionManager) Save(c *gin.Context, session *Session) error {
	claims := session.claims
	token, err := utils.GenerateSessionToken(&claims, m.secret, m.expiration)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(m.expiration.Seconds()), "/", "", m.secure, true)
	return nil
}

// GetSession returns the request's session, or an empty one when the
// session middleware did not run.
func GetSession(c *gin.Context) *Session {
	if value, ok := c.Get(sessionContextKey); ok {
		if session, ok := value.(*Session); ok {
			return session
		}
	}
	session := &Session{}
	c.Set(sessionContextKey, session)
	return session
}

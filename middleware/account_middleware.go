package middleware

import (
	"errors"
	"net/http"

	"driveuploader/models"
	"driveuploader/services"
	"driveuploader/utils"

	"github.com/gin-gonic/gin"
)

const accountContextKey = "account"

// LoadAccount resolves the logged in account from the session. A session
// pointing at a missing account is logged out.
func LoadAccount(accounts services.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if id := session.AccountID(); id != 0 {
			account, err := accounts.FindByID(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(accountContextKey, account)
			case errors.Is(err, services.ErrAccountNotFound):
				session.SetAccountID(0)
			default:
				utils.LogError("[Session] Failed to load account", err)
			}
		}
		c.Next()
	}
}

func CurrentAccount(c *gin.Context) *models.Account {
	if value, ok := c.Get(accountContextKey); ok {
		if account, ok := value.(*models.Account); ok {
			return account
		}
	}
	return nil
}

// RequireLogin sends anonymous users to the Google login.
func RequireLogin(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentAccount(c) != nil {
			c.Next()
			return
		}

		session := GetSession(c)
		session.AddFlash("info", "Please log in to access this page.")
		if err := sessions.Save(c, session); err != nil {
			utils.LogError("[Session] Failed to save session", err)
		}
		c.Redirect(http.StatusFound, "/google_login")
		c.Abort()
	}
}

package controllers

import (
	"errors"
	"fmt"

	"driveuploader/middleware"
	"driveuploader/services"
	"driveuploader/utils"

	"github.com/gin-gonic/gin"
)

const callbackPath = "/google_login/callback"

type AuthController struct {
	pages       *pageRenderer
	authService *services.AuthService
	redirectURL string
}

// NewAuthController creates the Google login handlers. An empty redirectURL
// is derived from each request.
func NewAuthController(sessions *middleware.SessionManager, authService *services.AuthService, redirectURL string) *AuthController {
	return &AuthController{
		pages:       &pageRenderer{sessions: sessions, loginEnabled: authService.Enabled()},
		authService: authService,
		redirectURL: redirectURL,
	}
}

// GoogleLogin redirects to the provider's consent page.
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if !ac.authService.Enabled() {
		ac.pages.flash(c, "danger", "Google login is not configured.")
		ac.pages.redirect(c, "/")
		return
	}

	state, err := services.GenerateState()
	if err != nil {
		logRequestError(c, "Failed to generate OAuth state", err)
		ac.pages.flash(c, "danger", "Unable to start Google login. Please try again.")
		ac.pages.redirect(c, "/")
		return
	}

	authURL, err := ac.authService.BeginLogin(c.Request.Context(), ac.callbackURL(c), state)
	if err != nil {
		logRequestError(c, "Failed to start Google login", err)
		ac.pages.flash(c, "danger", "Unable to start Google login. Please try again.")
		ac.pages.redirect(c, "/")
		return
	}

	middleware.GetSession(c).SetOAuthState(state)
	ac.pages.redirect(c, authURL)
}

func (ac *AuthController) GoogleCallback(c *gin.Context) {
	session := middleware.GetSession(c)
	expected := session.OAuthState()
	session.SetOAuthState("")

	if expected == "" || c.Query("state") != expected {
		logRequestError(c, "Google callback rejected", services.ErrInvalidState)
		ac.pages.flash(c, "danger", "Invalid or expired authentication state. Please try again.")
		ac.pages.redirect(c, "/")
		return
	}

	result, err := ac.authService.CompleteLogin(c.Request.Context(), c.Query("code"), ac.callbackURL(c))
	if err != nil {
		logRequestError(c, "Google login failed", err)
		if errors.Is(err, services.ErrEmailNotVerified) {
			ac.pages.flash(c, "danger", "User email not available or not verified by Google.")
		} else {
			ac.pages.flash(c, "danger", "Google login failed. Please try again.")
		}
		ac.pages.redirect(c, "/")
		return
	}

	session.SetAccountID(result.Account.ID)
	utils.LogInfo(fmt.Sprintf("[AuthController] Account %d logged in", result.Account.ID))
	ac.pages.flash(c, "success", fmt.Sprintf("Welcome, %s! You are now logged in with Google.", result.Profile.DisplayName()))
	ac.pages.redirect(c, "/")
}

func (ac *AuthController) Logout(c *gin.Context) {
	middleware.GetSession(c).SetAccountID(0)
	ac.pages.flash(c, "info", "You have been logged out.")
	ac.pages.redirect(c, "/")
}

// callbackURL derives the redirect URL from the request, honouring
// X-Forwarded-Proto.
func (ac *AuthController) callbackURL(c *gin.Context) string {
	if ac.redirectURL != "" {
		return ac.redirectURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + callbackPath
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"driveuploader/middleware"
	"driveuploader/services"

	"github.com/gin-gonic/gin"
)

// SetupDefaults prefill the setup form when the session holds no keys.
type SetupDefaults struct {
	APIKey       string
	ClientID     string
	ClientSecret string
}

type PageController struct {
	pages    *pageRenderer
	storage  services.StorageFactory
	defaults SetupDefaults
}

func NewPageController(sessions *middleware.SessionManager, storage services.StorageFactory, defaults SetupDefaults, loginEnabled bool) *PageController {
	return &PageController{
		pages:    &pageRenderer{sessions: sessions, loginEnabled: loginEnabled},
		storage:  storage,
		defaults: defaults,
	}
}

func (pc *PageController) Index(c *gin.Context) {
	pc.pages.render(c, http.StatusOK, "index.html", nil)
}

func (pc *PageController) Setup(c *gin.Context) {
	stored := storedCredentials(c)
	form := services.StoredAPICredentials{
		APIKey:       firstNonEmpty(stored.APIKey, pc.defaults.APIKey),
		ClientID:     firstNonEmpty(stored.ClientID, pc.defaults.ClientID),
		ClientSecret: firstNonEmpty(stored.ClientSecret, pc.defaults.ClientSecret),
	}
	pc.pages.render(c, http.StatusOK, "setup.html", gin.H{"Form": form})
}

// SaveSetup stores the API key triple in the session once a storage client
// can be built from it.
func (pc *PageController) SaveSetup(c *gin.Context) {
	form := services.StoredAPICredentials{
		APIKey:       strings.TrimSpace(c.PostForm("api_key")),
		ClientID:     strings.TrimSpace(c.PostForm("client_id")),
		ClientSecret: strings.TrimSpace(c.PostForm("client_secret")),
	}

	if err := pc.validateSetup(c, form); err != nil {
		logRequestError(c, "Error in setup", err)
		pc.pages.flash(c, "danger", "Error setting up credentials: "+err.Error())
		pc.pages.render(c, http.StatusOK, "setup.html", gin.H{"Form": form})
		return
	}

	middleware.GetSession(c).SetAPICredentials(form.APIKey, form.ClientID, form.ClientSecret)
	pc.pages.flash(c, "success", "Google Drive API credentials saved successfully!")
	pc.pages.redirect(c, "/uploads")
}

func (pc *PageController) validateSetup(c *gin.Context, form services.StoredAPICredentials) error {
	if !form.Complete() {
		return errors.New("API key, client ID and client secret are all required")
	}
	_, err := pc.storage(c.Request.Context(), services.DriveCredentials{
		APIKey:       form.APIKey,
		ClientID:     form.ClientID,
		ClientSecret: form.ClientSecret,
	})
	return err
}

func (pc *PageController) Uploads(c *gin.Context) {
	if _, err := requestCredentials(c); err != nil {
		pc.pages.flash(c, "warning", credentialsWarning)
		pc.pages.redirect(c, "/setup")
		return
	}
	pc.pages.render(c, http.StatusOK, "uploads.html", nil)
}

func (pc *PageController) NotFound(c *gin.Context) {
	pc.pages.render(c, http.StatusNotFound, "index.html", gin.H{"Error": "Page not found"})
}

// Recover renders the error page for a handler panic.
func (pc *PageController) Recover(c *gin.Context, recovered any) {
	logRequestError(c, "Server error", fmt.Errorf("panic: %v", recovered))
	pc.pages.render(c, http.StatusInternalServerError, "index.html", gin.H{"Error": "Internal server error. Please try again later."})
	c.Abort()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package controllers

import (
	"net/http"

	"driveuploader/middleware"
	"driveuploader/services"
	"driveuploader/utils"

	"github.com/gin-gonic/gin"
)

const credentialsWarning = "Please set up your Google Drive API credentials or login with Google."

// pageRenderer renders HTML pages and redirects, persisting the session
// (flashes included) before the response is written.
type pageRenderer struct {
	sessions     *middleware.SessionManager
	loginEnabled bool
}

func (p *pageRenderer) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	session := middleware.GetSession(c)
	data["Flashes"] = session.PopFlashes()
	data["Account"] = middleware.CurrentAccount(c)
	data["LoginEnabled"] = p.loginEnabled

	p.save(c, session)
	c.HTML(status, name, data)
}

func (p *pageRenderer) redirect(c *gin.Context, location string) {
	p.save(c, middleware.GetSession(c))
	c.Redirect(http.StatusFound, location)
}

func (p *pageRenderer) flash(c *gin.Context, category, message string) {
	middleware.GetSession(c).AddFlash(category, message)
}

func (p *pageRenderer) save(c *gin.Context, session *middleware.Session) {
	if err := p.sessions.Save(c, session); err != nil {
		utils.LogError("[Session] Failed to save session", err)
	}
}

// storedCredentials returns the API key triple saved by the setup page.
func storedCredentials(c *gin.Context) services.StoredAPICredentials {
	apiKey, clientID, clientSecret := middleware.GetSession(c).APICredentials()
	return services.StoredAPICredentials{APIKey: apiKey, ClientID: clientID, ClientSecret: clientSecret}
}

// requestCredentials resolves the credentials the current request reaches
// Drive with.
func requestCredentials(c *gin.Context) (services.DriveCredentials, error) {
	return services.ResolveCredentials(middleware.CurrentAccount(c), storedCredentials(c))
}

// storageFor builds a storage client for the current request.
func storageFor(c *gin.Context, factory services.StorageFactory) (services.StorageClient, error) {
	creds, err := requestCredentials(c)
	if err != nil {
		return nil, err
	}
	return factory(c.Request.Context(), creds)
}

func logRequestError(c *gin.Context, message string, err error) {
	utils.LogError("["+middleware.GetRequestID(c)+"] "+message, err)
}

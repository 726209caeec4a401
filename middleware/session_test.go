package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"driveuploader/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRouter(m *SessionManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), m.Middleware())

	router.GET("/set", func(c *gin.Context) {
		session := GetSession(c)
		session.SetAccountID(7)
		session.SetAPICredentials("key", "id", "secret")
		session.AddFlash("success", "saved")
		if err := m.Save(c, session); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/get", func(c *gin.Context) {
		session := GetSession(c)
		apiKey, _, _ := session.APICredentials()
		flashes := session.PopFlashes()
		c.JSON(http.StatusOK, gin.H{"account": session.AccountID(), "apiKey": apiKey, "flashes": len(flashes)})
	})
	return router
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, false)
	router := newSessionRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := utils.VerifySessionToken(cookies[0].Value, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
	require.Len(t, claims.Flashes, 1)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"account":7,"apiKey":"key","flashes":1}`, rec.Body.String())
}

func TestSessionRejectsForeignSignature(t *testing.T) {
	router := newSessionRouter(NewSessionManager("secret", time.Hour, false))
	utils.SetLogOutput(io.Discard)

	token, err := utils.GenerateSessionToken(&utils.SessionClaims{AccountID: 9, APIKey: "key"}, "other", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"account":0,"apiKey":"","flashes":0}`, rec.Body.String())
}

func TestPopFlashesClears(t *testing.T) {
	session := &Session{}
	session.AddFlash("info", "one")
	session.AddFlash("danger", "two")

	flashes := session.PopFlashes()
	require.Len(t, flashes, 2)
	assert.Equal(t, utils.Flash{Category: "danger", Message: "two"}, flashes[1])
	assert.Empty(t, session.PopFlashes())
}

func TestRequestID(t *testing.T) {
	router := newSessionRouter(NewSessionManager("secret", time.Hour, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get", nil))
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.Header.Set(RequestIDHeader, supplied)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, supplied, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/get", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nInjected: x")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\nInjected: x", rec.Header().Get(RequestIDHeader))
}

package controllers

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCallbackURL(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		configured string
		tls        bool
		forwarded  string
		want       string
	}{
		{"derived", "", false, "", "http://drive.example.com/google_login/callback"},
		{"tls", "", true, "", "https://drive.example.com/google_login/callback"},
		{"behind proxy", "", false, "https", "https://drive.example.com/google_login/callback"},
		{"configured", "https://login.example.com/cb", false, "http", "https://login.example.com/cb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "http://drive.example.com/google_login", nil)
			if tt.tls {
				c.Request.TLS = &tls.ConnectionState{}
			}
			if tt.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}

			ac := &AuthController{redirectURL: tt.configured}
			assert.Equal(t, tt.want, ac.callbackURL(c))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

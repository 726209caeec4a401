package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"driveuploader/models"
	"driveuploader/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	server        *httptest.Server
	emailVerified any
	refreshToken  string
	codes         []string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{emailVerified: true, refreshToken: "refresh-token"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{
			"authorization_endpoint": p.server.URL + "/auth",
			"token_endpoint":         p.server.URL + "/token",
			"userinfo_endpoint":      p.server.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		p.codes = append(p.codes, r.Form.Get("code"))
		body := map[string]any{
			"access_token": "access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if p.refreshToken != "" {
			body["refresh_token"] = p.refreshToken
		}
		writeJSON(w, body)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"sub":            "google-sub-1",
			"email":          "grace@example.com",
			"email_verified": p.emailVerified,
			"given_name":     "Grace",
		})
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func newTestAuthService(t *testing.T, p *fakeProvider, repo AccountRepository) *AuthService {
	t.Helper()
	return NewAuthService(AuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		DiscoveryURL: p.server.URL + "/.well-known/openid-configuration",
		Timeout:      5 * time.Second,
		HTTPClient:   p.server.Client(),
	}, repo)
}

func countAccounts(t *testing.T, repo *SQLAccountRepository) int64 {
	t.Helper()
	var n int64
	require.NoError(t, repo.db.Model(&models.Account{}).Count(&n).Error)
	return n
}

func TestBeginLogin(t *testing.T) {
	p := newFakeProvider(t)
	svc := newTestAuthService(t, p, newTestSQLRepository(t))

	authURL, err := svc.BeginLogin(context.Background(), "https://app.example/google_login/callback", "state-123")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, p.server.URL+"/auth", fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "https://app.example/google_login/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile https://www.googleapis.com/auth/drive", q.Get("scope"))
}

func TestCompleteLoginCreatesAccount(t *testing.T) {
	p := newFakeProvider(t)
	repo := newTestSQLRepository(t)
	svc := newTestAuthService(t, p, repo)

	result, err := svc.CompleteLogin(context.Background(), "code-1", "https://app.example/cb")
	require.NoError(t, err)

	assert.Equal(t, []string{"code-1"}, p.codes)
	assert.Equal(t, "Grace", result.Profile.DisplayName())
	assert.Equal(t, "grace@example.com", result.Account.Email)
	assert.Equal(t, "access-token", result.Account.AccessToken)
	assert.Equal(t, "refresh-token", result.Account.RefreshToken)
	require.NotNil(t, result.Account.TokenExpiry)

	// Repeat login without a refresh token keeps the stored one.
	p.refreshToken = ""
	again, err := svc.CompleteLogin(context.Background(), "code-2", "https://app.example/cb")
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, again.Account.ID)
	assert.Equal(t, "refresh-token", again.Account.RefreshToken)
	assert.Equal(t, int64(1), countAccounts(t, repo))
}

func TestCompleteLoginAcceptsStringVerifiedFlag(t *testing.T) {
	p := newFakeProvider(t)
	p.emailVerified = "true"
	svc := newTestAuthService(t, p, newTestSQLRepository(t))

	_, err := svc.CompleteLogin(context.Background(), "code", "https://app.example/cb")
	assert.NoError(t, err)
}

func TestCompleteLoginRejectsUnverifiedEmail(t *testing.T) {
	for _, flag := range []any{false, "false", nil} {
		t.Run(fmt.Sprint(flag), func(t *testing.T) {
			p := newFakeProvider(t)
			p.emailVerified = flag
			repo := newTestSQLRepository(t)
			svc := newTestAuthService(t, p, repo)

			result, err := svc.CompleteLogin(context.Background(), "code", "https://app.example/cb")

			assert.ErrorIs(t, err, ErrEmailNotVerified)
			assert.Nil(t, result)
			assert.Zero(t, countAccounts(t, repo))
		})
	}
}

func TestCompleteLoginLogsThroughLeveledLoggers(t *testing.T) {
	var buf bytes.Buffer
	utils.SetLogOutput(&buf)
	t.Cleanup(utils.InitLogger)

	p := newFakeProvider(t)
	p.emailVerified = false
	svc := newTestAuthService(t, p, newTestSQLRepository(t))

	_, err := svc.CompleteLogin(context.Background(), "code", "https://app.example/cb")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	out := buf.String()
	assert.Contains(t, out, "INFO: ")
	assert.Contains(t, out, "[AuthService] Initialized with discovery URL")
	assert.Contains(t, out, "WARNING: ")
	assert.Contains(t, out, "[AuthService] Rejected login for unverified email")
}

func TestLoginDisabledWithoutClient(t *testing.T) {
	svc := NewAuthService(AuthConfig{DiscoveryURL: "http://unused"}, nil)

	_, err := svc.BeginLogin(context.Background(), "http://x/cb", "s")
	assert.ErrorIs(t, err, ErrLoginDisabled)
	_, err = svc.CompleteLogin(context.Background(), "code", "http://x/cb")
	assert.ErrorIs(t, err, ErrLoginDisabled)
}

func TestCompleteLoginRequiresCode(t *testing.T) {
	p := newFakeProvider(t)
	svc := newTestAuthService(t, p, newTestSQLRepository(t))

	_, err := svc.CompleteLogin(context.Background(), "", "https://app.example/cb")
	assert.ErrorIs(t, err, ErrMissingCode)
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

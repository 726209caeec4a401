package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driveuploader/models"
	"driveuploader/utils"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
)

var (
	ErrEmailNotVerified = errors.New("email not verified")
	ErrInvalidState     = errors.New("invalid or expired OAuth state")
	ErrLoginDisabled    = errors.New("Google login is not configured")
	ErrMissingCode      = errors.New("authorization code missing")
)

var loginScopes = []string{"openid", "email", "profile", drive.DriveScope}

type AuthConfig struct {
	ClientID     string
	ClientSecret string
	DiscoveryURL string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// AuthService runs the Google OpenID Connect login and records the account.
type AuthService struct {
	cfg        AuthConfig
	accounts   AccountRepository
	httpClient *http.Client
}

type providerMetadata struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

type GoogleUserInfo struct {
	Subject       string       `json:"sub"`
	Email         string       `json:"email"`
	EmailVerified FlexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
	GivenName     string       `json:"given_name"`
	Picture       string       `json:"picture"`
}

// FlexibleBool accepts both true and "true".
type FlexibleBool bool

func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	*fb = str == "true"
	return nil
}

// LoginResult is the outcome of a completed login.
type LoginResult struct {
	Account *models.Account
	Profile models.GoogleProfile
}

func NewAuthService(cfg AuthConfig, accounts AccountRepository) *AuthService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	utils.LogInfo("[AuthService] Initialized with discovery URL: " + cfg.DiscoveryURL)
	return &AuthService{cfg: cfg, accounts: accounts, httpClient: httpClient}
}

func (s *AuthService) Enabled() bool {
	return s.cfg.ClientID != "" && s.cfg.ClientSecret != ""
}

func GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// BeginLogin returns the provider URL the user is redirected to.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL, state string) (string, error) {
	if !s.Enabled() {
		return "", ErrLoginDisabled
	}

	provider, err := s.discover(ctx)
	if err != nil {
		return "", err
	}

	authURL := s.oauthConfig(provider, redirectURL).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	utils.LogInfo("[AuthService] Redirecting to " + provider.AuthorizationEndpoint)
	return authURL, nil
}

// CompleteLogin exchanges code for tokens, requires a verified email and
// upserts the account by email.
func (s *AuthService) CompleteLogin(ctx context.Context, code, redirectURL string) (*LoginResult, error) {
	if !s.Enabled() {
		return nil, ErrLoginDisabled
	}
	if code == "" {
		return nil, ErrMissingCode
	}

	provider, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	oauthCfg := s.oauthConfig(provider, redirectURL)

	exchangeCtx, cancel := context.WithTimeout(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient), s.cfg.Timeout)
	defer cancel()

	token, err := oauthCfg.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for tokens: %w", err)
	}

	info, err := s.fetchUserInfo(exchangeCtx, oauthCfg, provider.UserinfoEndpoint, token)
	if err != nil {
		return nil, err
	}
	if !bool(info.EmailVerified) || info.Email == "" {
		utils.LogWarning(fmt.Sprintf("[AuthService] Rejected login for unverified email %q", info.Email))
		return nil, ErrEmailNotVerified
	}

	profile := models.GoogleProfile{
		Subject:   info.Subject,
		Email:     info.Email,
		GivenName: info.GivenName,
		Name:      info.Name,
	}
	account, err := s.accounts.UpsertGoogleAccount(ctx, profile, models.OAuthTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo(fmt.Sprintf("[AuthService] Google login completed for account %d", account.ID))
	return &LoginResult{Account: account, Profile: profile}, nil
}

func (s *AuthService) discover(ctx context.Context) (*providerMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.DiscoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building discovery request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch provider configuration: HTTP %d", resp.StatusCode)
	}

	var provider providerMetadata
	if err := json.NewDecoder(resp.Body).Decode(&provider); err != nil {
		return nil, fmt.Errorf("failed to decode provider configuration: %w", err)
	}
	if provider.AuthorizationEndpoint == "" || provider.TokenEndpoint == "" || provider.UserinfoEndpoint == "" {
		return nil, errors.New("provider configuration is missing endpoints")
	}
	return &provider, nil
}

func (s *AuthService) oauthConfig(provider *providerMetadata, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       loginScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.AuthorizationEndpoint,
			TokenURL: provider.TokenEndpoint,
		},
	}
}

func (s *AuthService) fetchUserInfo(ctx context.Context, cfg *oauth2.Config, endpoint string, token *oauth2.Token) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building userinfo request: %w", err)
	}

	resp, err := cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch user info: HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

package config

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string
	Env  string

	DatabaseURL  string
	DatabaseName string

	SessionSecret     string
	SessionExpiration time.Duration

	// Defaults offered on the setup form.
	GoogleAPIKey       string
	GoogleClientID     string
	GoogleClientSecret string

	// Used for "Login with Google" and for refreshing OAuth tokens.
	GoogleOAuthClientID     string
	GoogleOAuthClientSecret string
	GoogleRedirectURL       string
	GoogleDiscoveryURL      string

	MaxContentLength         int64
	AllowedExtensions        []string
	EnforceAllowedExtensions bool

	UploadFolder        string
	UploadChunkSize     int
	ListPageSize        int
	ExternalCallTimeout time.Duration
	VideoDownloader     string

	// Sweeping of temporary upload artifacts left behind by a crash.
	TempSweepInterval time.Duration
	TempMaxAge        time.Duration
}

var AppConfig *Config

const (
	DefaultSessionSecret = "dev_secret_key"
	DefaultDiscoveryURL  = "https://accounts.google.com/.well-known/openid-configuration"
)

var defaultAllowedExtensions = "pdf,doc,docx,txt,rtf,odt," +
	"jpg,jpeg,png,gif,bmp,webp,svg," +
	"mp4,mov,avi,mkv,webm,flv," +
	"mp3,wav,ogg,m4a,flac," +
	"zip,rar,7z,tar,gz"

func LoadConfig() {
	AppConfig = Load()
	logConfig()
	validateConfig()
}

// Load reads the configuration from the environment without logging or
// validating it.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "5000"),
		Env:  getEnv("ENV", "development"),

		DatabaseURL:  getEnv("DATABASE_URL", "sqlite://driveuploader.db"),
		DatabaseName: getEnv("DATABASE_NAME", "driveuploader"),

		SessionSecret:     getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionExpiration: parseDuration(getEnv("SESSION_EXPIRATION", "24h")),

		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		GoogleOAuthClientID:     getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleOAuthClientSecret: getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleRedirectURL:       getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleDiscoveryURL:      getEnv("GOOGLE_DISCOVERY_URL", DefaultDiscoveryURL),

		MaxContentLength:         parseInt64(getEnv("MAX_CONTENT_LENGTH", "524288000")),
		AllowedExtensions:        parseStringSlice(strings.ToLower(getEnv("ALLOWED_EXTENSIONS", defaultAllowedExtensions))),
		EnforceAllowedExtensions: parseBool(getEnv("ENFORCE_ALLOWED_EXTENSIONS", "false")),

		UploadFolder:        getEnv("UPLOAD_FOLDER", DefaultUploadFolder()),
		UploadChunkSize:     int(parseInt64(getEnv("UPLOAD_CHUNK_SIZE", "8388608"))),
		ListPageSize:        int(parseInt64(getEnv("LIST_PAGE_SIZE", "100"))),
		ExternalCallTimeout: parseDuration(getEnv("EXTERNAL_CALL_TIMEOUT", "60s")),
		VideoDownloader:     getEnv("VIDEO_DOWNLOADER", "yt-dlp"),

		TempSweepInterval: parseDuration(getEnv("TEMP_SWEEP_INTERVAL", "1h")),
		TempMaxAge:        parseDuration(getEnv("TEMP_MAX_AGE", "6h")),
	}
}

// DefaultUploadFolder is an app-owned directory under the OS temp dir, so
// the temp sweeper never sees files other programs put there.
func DefaultUploadFolder() string {
	return filepath.Join(os.TempDir(), "driveuploader")
}

// EnsureUploadFolder creates the upload folder if it is missing.
func (c *Config) EnsureUploadFolder() error {
	return os.MkdirAll(c.UploadFolder, 0o700)
}

// AllowedExtensionSet returns the allow-list as a lookup set.
func (c *Config) AllowedExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AllowedExtensions))
	for _, ext := range c.AllowedExtensions {
		set[strings.TrimPrefix(ext, ".")] = struct{}{}
	}
	return set
}

// LoginEnabled reports whether Google login has client credentials.
func (c *Config) LoginEnabled() bool {
	return c.GoogleOAuthClientID != "" && c.GoogleOAuthClientSecret != ""
}

func logConfig() {
	log.Println("Configuration loaded:")
	log.Printf("  Port: %s", AppConfig.Port)
	log.Printf("  Environment: %s", AppConfig.Env)
	log.Printf("  Database URL: %s", maskConnectionString(AppConfig.DatabaseURL))
	log.Printf("  Database Name: %s", AppConfig.DatabaseName)
	log.Printf("  Session Secret: %s", maskSecret(AppConfig.SessionSecret))
	log.Printf("  Session Expiration: %v", AppConfig.SessionExpiration)
	log.Printf("  Google API Key: %s", maskSecret(AppConfig.GoogleAPIKey))
	log.Printf("  Google OAuth Client ID: %s", maskSecret(AppConfig.GoogleOAuthClientID))
	log.Printf("  Google Redirect URL: %s", AppConfig.GoogleRedirectURL)
	log.Printf("  Max Content Length: %d bytes", AppConfig.MaxContentLength)
	log.Printf("  Allowed Extensions: %v (enforced: %t)", AppConfig.AllowedExtensions, AppConfig.EnforceAllowedExtensions)
	log.Printf("  Upload Folder: %s", AppConfig.UploadFolder)
	log.Printf("  External Call Timeout: %v", AppConfig.ExternalCallTimeout)
	log.Printf("  Video Downloader: %s", AppConfig.VideoDownloader)
	log.Printf("  Temp Sweep: every %v, max age %v", AppConfig.TempSweepInterval, AppConfig.TempMaxAge)
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func maskConnectionString(uri string) string {
	if uri == "" {
		return "[NOT SET]"
	}
	if strings.Contains(uri, "@") {
		parts := strings.Split(uri, "@")
		if len(parts) >= 2 {
			return "[CREDENTIALS_HIDDEN]@" + parts[len(parts)-1]
		}
	}
	return uri
}

func validateConfig() {
	if AppConfig.SessionSecret == DefaultSessionSecret {
		log.Println("WARNING: SESSION_SECRET is not set, using the development default")
	}

	if !AppConfig.LoginEnabled() {
		log.Println("WARNING: GOOGLE_OAUTH_CLIENT_ID/GOOGLE_OAUTH_CLIENT_SECRET not set, Google login is disabled")
	}

	if AppConfig.MaxContentLength <= 0 {
		log.Fatal("MAX_CONTENT_LENGTH must be positive")
	}
	if AppConfig.ExternalCallTimeout <= 0 {
		log.Fatal("EXTERNAL_CALL_TIMEOUT must be positive")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("Failed to parse int64: %s", s)
	}
	return i
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("Failed to parse duration: %s", s)
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("Failed to parse bool: %s", s)
	}
	return b
}

func CreateContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

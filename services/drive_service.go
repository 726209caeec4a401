package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"driveuploader/models"
	"driveuploader/utils"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	listFields          = "files(id, name, mimeType, createdTime, size, webViewLink)"
	defaultListSize     = 100
	defaultURLFilename  = "downloaded_file"
	unnamedFile         = "Unnamed"
	unknownMimeType     = "unknown/unknown"
	defaultCallTimeout  = 60 * time.Second
	stagedFilePattern   = "driveuploader-staged-*"
	maxErrorBodyPreview = 512
)

// StorageClient is the set of Drive operations the routes use.
type StorageClient interface {
	ListFiles(ctx context.Context, maxResults int) ([]models.FileRecord, error)
	UploadFromLocal(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	UploadFromBytes(ctx context.Context, data []byte, filename, contentType string) (string, error)
	UploadFromURL(ctx context.Context, sourceURL string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// StorageFactory builds a StorageClient bound to one request's credentials.
type StorageFactory func(ctx context.Context, creds DriveCredentials) (StorageClient, error)

type DriveConfig struct {
	// OAuth client used to refresh user tokens.
	OAuthClientID     string
	OAuthClientSecret string
	// TokenURL overrides Google's token endpoint when set.
	TokenURL string
	// TokenStore receives refreshed tokens; refreshes stay in memory when nil.
	TokenStore TokenStore

	UploadFolder    string
	ChunkSize       int
	MaxDownloadSize int64
	Timeout         time.Duration

	// HTTPClient fetches remote URLs; a client with Timeout is used when nil.
	HTTPClient *http.Client
}

type DriveService struct {
	service    *drive.Service
	cfg        DriveConfig
	httpClient *http.Client
	oauth      bool
}

// NewDriveServiceFactory returns a factory that builds a fresh DriveService
// per call. Extra options are appended after the credential options.
func NewDriveServiceFactory(cfg DriveConfig, opts ...option.ClientOption) StorageFactory {
	return func(ctx context.Context, creds DriveCredentials) (StorageClient, error) {
		return NewDriveService(ctx, creds, cfg, opts...)
	}
}

func NewDriveService(ctx context.Context, creds DriveCredentials, cfg DriveConfig, opts ...option.ClientOption) (*DriveService, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	if cfg.UploadFolder == "" {
		cfg.UploadFolder = filepath.Join(os.TempDir(), appTempDir)
	}

	var clientOpts []option.ClientOption
	switch {
	case creds.UsesOAuth():
		endpoint := google.Endpoint
		if cfg.TokenURL != "" {
			endpoint.TokenURL = cfg.TokenURL
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{drive.DriveScope},
		}
		token := &oauth2.Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       creds.Expiry,
		}
		refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
		source := oauthCfg.TokenSource(refreshCtx, token)
		if cfg.TokenStore != nil && creds.AccountID != 0 {
			source = newPersistingTokenSource(ctx, token, source, cfg.TokenStore, creds.AccountID)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(source))
	case creds.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(creds.APIKey))
	default:
		return nil, wrapErr(ErrServiceInit, "no access token or API key supplied")
	}
	clientOpts = append(clientOpts, opts...)

	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, wrapErr(ErrServiceInit, "%w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &DriveService{
		service:    service,
		cfg:        cfg,
		httpClient: httpClient,
		oauth:      creds.UsesOAuth(),
	}, nil
}

func (s *DriveService) ListFiles(ctx context.Context, maxResults int) ([]models.FileRecord, error) {
	if maxResults <= 0 {
		maxResults = defaultListSize
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.service.Files.List().
		PageSize(int64(maxResults)).
		Fields(googleapi.Field(listFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr(ErrListFiles, "%w", err)
	}

	records := make([]models.FileRecord, 0, len(result.Files))
	for _, f := range result.Files {
		records = append(records, toFileRecord(f))
	}
	return records, nil
}

func toFileRecord(f *drive.File) models.FileRecord {
	record := models.FileRecord{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		CreatedTime: f.CreatedTime,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
	}
	if record.Name == "" {
		record.Name = unnamedFile
	}
	if record.MimeType == "" {
		record.MimeType = unknownMimeType
	}
	if record.Size < 0 {
		record.Size = 0
	}
	return record
}

// UploadFromLocal stages r on disk and uploads it. The staged copy is removed
// on every return path.
func (s *DriveService) UploadFromLocal(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	staged, err := os.CreateTemp(s.cfg.UploadFolder, stagedFilePattern+filepath.Ext(utils.SanitizeFilename(filename)))
	if err != nil {
		return "", wrapErr(ErrUpload, "staging %s: %w", filename, err)
	}
	defer func() {
		staged.Close()
		if rmErr := os.Remove(staged.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			utils.LogError("[DriveService] Failed to remove staged file "+staged.Name(), rmErr)
		}
	}()

	if _, err := io.Copy(staged, r); err != nil {
		return "", wrapErr(ErrUpload, "staging %s: %w", filename, err)
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return "", wrapErr(ErrUpload, "staging %s: %w", filename, err)
	}

	return s.upload(ctx, staged, filename, contentType)
}

func (s *DriveService) UploadFromBytes(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	return s.upload(ctx, bytes.NewReader(data), filename, contentType)
}

// UploadFromURL downloads sourceURL into memory and uploads it under the
// last segment of the URL path.
func (s *DriveService) UploadFromURL(ctx context.Context, sourceURL string) (string, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", wrapErr(ErrValidation, "%w: unsupported URL %q", ErrUpload, sourceURL)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", wrapErr(ErrUpload, "building request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", wrapErr(ErrUpload, "downloading %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
		return "", wrapErr(ErrUpload, "downloading %s: HTTP %d %s", sourceURL, resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	body := io.Reader(resp.Body)
	if s.cfg.MaxDownloadSize > 0 {
		body = io.LimitReader(resp.Body, s.cfg.MaxDownloadSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", wrapErr(ErrUpload, "reading %s: %w", sourceURL, err)
	}
	if s.cfg.MaxDownloadSize > 0 && int64(len(data)) > s.cfg.MaxDownloadSize {
		return "", wrapErr(ErrUpload, "%s exceeds the maximum size of %d bytes", sourceURL, s.cfg.MaxDownloadSize)
	}

	filename := filenameFromURL(parsed)
	contentType := contentTypeFromHeader(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = stripParams(mimetype.Detect(data).String())
	}

	utils.LogInfo(fmt.Sprintf("[DriveService] Fetched %d bytes from %s as %s (%s)", len(data), parsed.Host, filename, contentType))
	return s.UploadFromBytes(ctx, data, filename, contentType)
}

func (s *DriveService) DeleteFile(ctx context.Context, fileID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusNotFound:
				return wrapErr(ErrDelete, "file %s not found: %w", fileID, err)
			case http.StatusForbidden:
				return wrapErr(ErrDelete, "permission denied for file %s: %w", fileID, err)
			}
		}
		return wrapErr(ErrDelete, "%w", err)
	}

	utils.LogInfo("[DriveService] Deleted file " + fileID)
	return nil
}

func (s *DriveService) upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if contentType == "" {
		contentType = utils.ResolveContentType(filename)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	created, err := s.service.Files.Create(&drive.File{Name: filename, MimeType: contentType}).
		Media(r, googleapi.ContentType(contentType), googleapi.ChunkSize(s.cfg.ChunkSize)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapErr(ErrUpload, "%s: %w", filename, err)
	}

	utils.LogInfo(fmt.Sprintf("[DriveService] Uploaded %s as %s (oauth=%t)", filename, created.Id, s.oauth))
	return created.Id, nil
}

func filenameFromURL(u *url.URL) string {
	name := path.Base(strings.TrimRight(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		return defaultURLFilename
	}
	return name
}

func contentTypeFromHeader(header string) string {
	if header == "" {
		return ""
	}
	return stripParams(header)
}

func stripParams(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.TrimSpace(strings.Split(contentType, ";")[0])
}

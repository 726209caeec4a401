package services

import (
	"errors"
	"fmt"
)

var (
	ErrCredentialMissing = errors.New("no Google Drive credentials available")
	ErrServiceInit       = errors.New("failed to initialize Google Drive service")
	ErrListFiles         = errors.New("failed to list files")
	ErrUpload            = errors.New("failed to upload file")
	ErrDelete            = errors.New("failed to delete file")
	ErrValidation        = errors.New("invalid request")
	ErrVideoResolution   = errors.New("could not extract YouTube video ID from URL")
)

// VideoErrorKind classifies why a video could not be downloaded.
type VideoErrorKind string

const (
	VideoErrorRegion    VideoErrorKind = "region"
	VideoErrorPrivate   VideoErrorKind = "private"
	VideoErrorRemoved   VideoErrorKind = "removed"
	VideoErrorExtractor VideoErrorKind = "extractor"
	VideoErrorUnknown   VideoErrorKind = "unknown"
)

// VideoDownloadError carries a user facing message for a failed download.
type VideoDownloadError struct {
	Kind    VideoErrorKind
	VideoID string
	Detail  string
	Err     error
}

func (e *VideoDownloadError) Error() string {
	vidInfo := ""
	if e.VideoID != "" {
		vidInfo = fmt.Sprintf(" (Video ID: %s)", e.VideoID)
	}

	switch e.Kind {
	case VideoErrorRegion:
		return fmt.Sprintf("Video is not available in your region%s. Try a different video that doesn't have regional restrictions.", vidInfo)
	case VideoErrorPrivate:
		return fmt.Sprintf("This video is private%s and cannot be accessed. Please try a public video instead.", vidInfo)
	case VideoErrorRemoved:
		return fmt.Sprintf("This video has been removed or deleted from YouTube%s. Please try another video.", vidInfo)
	case VideoErrorExtractor:
		return fmt.Sprintf("Unable to process this YouTube video%s. This might be due to YouTube changing their site. Please try another video or try again later.", vidInfo)
	default:
		return fmt.Sprintf("Failed to download YouTube video%s: %s", vidInfo, e.Detail)
	}
}

func (e *VideoDownloadError) Unwrap() error {
	return e.Err
}

// wrapErr attaches a sentinel to a cause so callers can match with errors.Is.
func wrapErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", sentinel, fmt.Errorf(format, args...))
}

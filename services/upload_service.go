package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"driveuploader/utils"
)

// LocalUploader uploads a local stream to storage.
type LocalUploader interface {
	UploadFromLocal(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}

// VideoFetcher downloads a video to a temporary location.
type VideoFetcher interface {
	DownloadVideo(ctx context.Context, videoURL string) (*DownloadedVideo, error)
}

// UploadFromVideoSource downloads videoURL and uploads the result. The
// downloaded artifact is removed before returning, whatever the outcome.
func UploadFromVideoSource(ctx context.Context, videoURL string, storage LocalUploader, video VideoFetcher) (string, error) {
	downloaded, err := video.DownloadVideo(ctx, videoURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if cleanupErr := downloaded.Cleanup(); cleanupErr != nil {
			utils.LogError("[UploadService] Failed to remove downloaded video "+downloaded.Path, cleanupErr)
		}
	}()

	f, err := os.Open(downloaded.Path)
	if err != nil {
		return "", wrapErr(ErrUpload, "opening downloaded video: %w", err)
	}
	defer f.Close()

	fileID, err := storage.UploadFromLocal(ctx, f, downloaded.Filename, downloaded.ContentType)
	if err != nil {
		return "", err
	}

	utils.LogInfo(fmt.Sprintf("[UploadService] Uploaded video %s as %s", downloaded.Filename, fileID))
	return fileID, nil
}

// appTempDir names the app-owned directory under the OS temp dir.
const appTempDir = "driveuploader"

// TempArtifactPatterns are the glob patterns of the files and directories
// uploads create in the upload folder.
func TempArtifactPatterns() []string {
	return []string{stagedFilePattern, videoDirPattern}
}

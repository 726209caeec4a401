package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"driveuploader/utils"
)

const (
	defaultVideoTitle   = "youtube_video"
	defaultVideoType    = "video/mp4"
	videoDirPattern     = "driveuploader-video-*"
	videoOutputTemplate = "%(title)s.%(ext)s"
)

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com\/(?:[^\/\n\s]+\/\S+\/|(?:v|e(?:mbed)?)\/|\S*?[?&]v=)|youtu\.be\/)([a-zA-Z0-9_-]{11})`)

var regionPatterns = []string{
	"not available in your country",
	"uploader has not made this video available in your country",
	"video is not available in your location",
	"this video is not available in your country",
}

var audioContainers = map[string]bool{"mp3": true, "ogg": true, "wav": true, "flac": true, "aac": true}

// CommandRunner executes an external program and returns its output.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

type VideoConfig struct {
	Downloader string
	WorkDir    string
	Timeout    time.Duration
}

// VideoService downloads YouTube videos through a youtube-dl compatible
// command line tool.
type VideoService struct {
	cfg VideoConfig
	run CommandRunner
}

type VideoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Ext      string  `json:"ext"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
}

// DownloadedVideo is a video saved to a temporary directory owned by the
// caller until Cleanup is called.
type DownloadedVideo struct {
	Path        string
	Filename    string
	ContentType string
	Dir         string
}

func (d *DownloadedVideo) Cleanup() error {
	if d == nil || d.Dir == "" {
		return nil
	}
	return os.RemoveAll(d.Dir)
}

func NewVideoService(cfg VideoConfig) *VideoService {
	if cfg.Downloader == "" {
		cfg.Downloader = "yt-dlp"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(os.TempDir(), appTempDir)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	return &VideoService{cfg: cfg, run: execRunner}
}

// ExtractVideoID returns the 11 character video id of a YouTube link.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if parsed, err := url.Parse(rawURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		host = strings.TrimPrefix(host, "m.")
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

		switch host {
		case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
			if id := parsed.Query().Get("v"); validVideoID(id) {
				return id, true
			}
			if len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "v" || segments[0] == "shorts") && validVideoID(segments[1]) {
				return segments[1], true
			}
		case "youtu.be":
			if len(segments) >= 1 && validVideoID(segments[0]) {
				return segments[0], true
			}
		}
	}

	if match := videoIDPattern.FindStringSubmatch(rawURL); match != nil {
		return match[1], true
	}
	return "", false
}

func validVideoID(id string) bool {
	if len(id) != 11 {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// GetVideoInfo reads the video metadata without downloading it.
func (s *VideoService) GetVideoInfo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	videoID, ok := ExtractVideoID(videoURL)
	if !ok {
		return nil, ErrVideoResolution
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	return s.fetchInfo(ctx, videoURL, videoID)
}

// DownloadVideo downloads the best single file rendition of videoURL. On
// failure the temporary directory is already removed; on success the caller
// must call Cleanup.
func (s *VideoService) DownloadVideo(ctx context.Context, videoURL string) (video *DownloadedVideo, err error) {
	videoID, ok := ExtractVideoID(videoURL)
	if !ok {
		return nil, ErrVideoResolution
	}

	dir, err := os.MkdirTemp(s.cfg.WorkDir, videoDirPattern)
	if err != nil {
		return nil, classifyDownloadError(videoID, err.Error(), err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			utils.LogError("[VideoService] Failed to remove "+dir, rmErr)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	utils.LogInfo("[VideoService] Checking YouTube video " + videoID)
	info, err := s.fetchInfo(ctx, videoURL, videoID)
	if err != nil {
		return nil, err
	}

	title := info.Title
	if title == "" {
		title = defaultVideoTitle
	}

	utils.LogInfo(fmt.Sprintf("[VideoService] Downloading video %q (%s)", title, videoID))
	_, stderr, runErr := s.run(ctx, s.cfg.Downloader,
		"--no-playlist",
		"-f", "best",
		"-o", filepath.Join(dir, videoOutputTemplate),
		videoURL,
	)
	if runErr != nil {
		return nil, classifyDownloadError(videoID, toolMessage(ctx, stderr, runErr), runErr)
	}

	path, err := firstFile(dir)
	if err != nil {
		return nil, classifyDownloadError(videoID, err.Error(), err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return &DownloadedVideo{
		Path:        path,
		Filename:    title + "." + ext,
		ContentType: ContainerContentType(ext),
		Dir:         dir,
	}, nil
}

func (s *VideoService) fetchInfo(ctx context.Context, videoURL, videoID string) (*VideoInfo, error) {
	stdout, stderr, err := s.run(ctx, s.cfg.Downloader, "--no-playlist", "--dump-json", videoURL)
	if err != nil {
		utils.LogError("[VideoService] Video info lookup failed: "+strings.TrimSpace(string(stderr)), err)
		return nil, classifyDownloadError(videoID, toolMessage(ctx, stderr, err), err)
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, classifyDownloadError(videoID, "unreadable video metadata: "+err.Error(), err)
	}
	return &info, nil
}

// ContainerContentType guesses a MIME type from a container extension.
func ContainerContentType(ext string) string {
	ext = strings.ToLower(ext)
	switch {
	case ext == "mp4":
		return "video/mp4"
	case ext == "webm":
		return "video/webm"
	case ext == "mkv":
		return "video/x-matroska"
	case ext == "m4a":
		return "audio/mp4"
	case audioContainers[ext]:
		return "audio/" + ext
	default:
		return defaultVideoType
	}
}

// classifyDownloadError maps downloader output onto a user facing error. An
// error that is already classified is returned unchanged.
func classifyDownloadError(videoID, message string, cause error) error {
	var classified *VideoDownloadError
	if errors.As(cause, &classified) {
		return classified
	}

	kind := VideoErrorUnknown
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, regionPatterns):
		kind = VideoErrorRegion
	case strings.Contains(message, "Private video"):
		kind = VideoErrorPrivate
	case strings.Contains(message, "This video has been removed"):
		kind = VideoErrorRemoved
	case strings.Contains(message, "Unable to extract"):
		kind = VideoErrorExtractor
	}

	return &VideoDownloadError{Kind: kind, VideoID: videoID, Detail: message, Err: cause}
}

// toolMessage extracts the ERROR lines a youtube-dl style tool prints.
func toolMessage(ctx context.Context, stderr []byte, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timed out waiting for the video downloader"
	}

	var lines []string
	for _, line := range strings.Split(string(stderr), "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "ERROR:") {
			lines = append(lines, strings.TrimSpace(strings.TrimPrefix(line, "ERROR:")))
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "; ")
	}
	if trimmed := strings.TrimSpace(string(stderr)); trimmed != "" {
		return trimmed
	}
	return err.Error()
}

func firstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasSuffix(entry.Name(), ".part") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", errors.New("Download completed but no file was created.")
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

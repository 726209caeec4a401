package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

const DefaultContentType = "application/octet-stream"

func init() {
	// Registered so lookups do not depend on the host's mime.types.
	extensionTypes := map[string]string{
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".txt":  "text/plain",
		".rtf":  "application/rtf",
		".odt":  "application/vnd.oasis.opendocument.text",
		".bmp":  "image/bmp",
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".avi":  "video/x-msvideo",
		".mkv":  "video/x-matroska",
		".webm": "video/webm",
		".flv":  "video/x-flv",
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".ogg":  "audio/ogg",
		".m4a":  "audio/mp4",
		".flac": "audio/flac",
		".zip":  "application/zip",
		".rar":  "application/x-rar-compressed",
		".7z":   "application/x-7z-compressed",
		".tar":  "application/x-tar",
		".gz":   "application/gzip",
	}
	for ext, typ := range extensionTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// ResolveContentType maps a filename to a MIME type by extension, falling
// back to application/octet-stream.
func ResolveContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return DefaultContentType
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return DefaultContentType
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return contentType
}

// IsAllowed reports whether filename has an extension contained in allowed.
func IsAllowed(filename string, allowed map[string]struct{}) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	_, ok := allowed[strings.ToLower(filename[idx+1:])]
	return ok
}

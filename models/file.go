package models

import (
	"fmt"
	"strings"
	"time"
)

// File type categories shown in the file list.
const (
	FileTypeImage        = "image"
	FileTypeVideo        = "video"
	FileTypeAudio        = "audio"
	FileTypePDF          = "pdf"
	FileTypeDocument     = "document"
	FileTypeSpreadsheet  = "spreadsheet"
	FileTypePresentation = "presentation"
	FileTypeArchive      = "archive"
	FileTypeOther        = "other"
)

const displayDateLayout = "2006-01-02 15:04:05"

// Zone-less forms are accepted too; fractional seconds parse under any of them.
var createdTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", displayDateLayout, time.DateOnly}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

var archiveMarkers = []string{"zip", "x-rar", "x-7z", "x-tar", "gzip", "compressed"}

// FileRecord is the metadata of one Drive file, built per list request.
type FileRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mime_type"`
	CreatedTime string `json:"created_time"`
	Size        int64  `json:"size"`
	WebViewLink string `json:"web_view_link,omitempty"`
}

func (f FileRecord) FileType() string {
	mimeType := strings.ToLower(f.MimeType)

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return FileTypeAudio
	case strings.Contains(mimeType, "pdf"):
		return FileTypePDF
	case strings.Contains(mimeType, "google-apps.document"), strings.Contains(mimeType, "wordprocessingml"), mimeType == "application/msword":
		return FileTypeDocument
	case strings.Contains(mimeType, "google-apps.spreadsheet"), strings.Contains(mimeType, "spreadsheetml"):
		return FileTypeSpreadsheet
	case strings.Contains(mimeType, "google-apps.presentation"), strings.Contains(mimeType, "presentationml"):
		return FileTypePresentation
	}

	for _, marker := range archiveMarkers {
		if strings.Contains(mimeType, marker) {
			return FileTypeArchive
		}
	}
	return FileTypeOther
}

// FormattedSize renders Size with two decimals in the largest unit that
// keeps the value below 1024.
func (f FileRecord) FormattedSize() string {
	return HumanReadableSize(f.Size)
}

// FormattedDate renders CreatedTime as "YYYY-MM-DD HH:MM:SS", returning the
// raw value when it cannot be parsed.
func (f FileRecord) FormattedDate() string {
	if f.CreatedTime == "" {
		return ""
	}
	for _, layout := range createdTimeLayouts {
		if t, err := time.Parse(layout, f.CreatedTime); err == nil {
			return t.Format(displayDateLayout)
		}
	}
	return f.CreatedTime
}

func HumanReadableSize(size int64) string {
	value := float64(size)
	unit := sizeUnits[0]
	for _, u := range sizeUnits {
		unit = u
		if value < 1024 {
			break
		}
		if u != sizeUnits[len(sizeUnits)-1] {
			value /= 1024
		}
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"pdf", "report.pdf", "application/pdf"},
		{"upper case extension", "PHOTO.PNG", "image/png"},
		{"video", "clip.mp4", "video/mp4"},
		{"matroska", "movie.mkv", "video/x-matroska"},
		{"archive", "bundle.7z", "application/x-7z-compressed"},
		{"text drops charset", "notes.txt", "text/plain"},
		{"unknown extension", "data.qqqzzz", DefaultContentType},
		{"no extension", "Makefile", DefaultContentType},
		{"empty", "", DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveContentType(tt.filename)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolveContentType(tt.filename), "lookup must be stable")
		})
	}
}

func TestIsAllowed(t *testing.T) {
	allowed := map[string]struct{}{"pdf": {}, "mp4": {}, "gz": {}}

	assert.True(t, IsAllowed("a.pdf", allowed))
	assert.True(t, IsAllowed("A.PDF", allowed))
	assert.True(t, IsAllowed("backup.tar.gz", allowed))
	assert.False(t, IsAllowed("archive.tar", allowed))
	assert.False(t, IsAllowed("pdf", allowed))
	assert.False(t, IsAllowed("", allowed))
	assert.False(t, IsAllowed("trailing.", allowed))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"my file.pdf":         "my_file.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cv.docx`: "cv.docx",
		".hidden":             "hidden",
		"résumé 2024.txt":     "rsum_2024.txt",
		"???":                 "upload",
		"clip  (final).mp4":   "clip_final.mp4",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestValidateFileName(t *testing.T) {
	assert.NoError(t, ValidateFileName("ok.txt"))
	assert.Error(t, ValidateFileName(""))
	assert.Error(t, ValidateFileName(string(make([]byte, 256))))
	assert.Error(t, ValidateFileName("bad\x00name"))
	assert.Error(t, ValidateFileName(string([]byte{0xff, 0xfe})))
}

package utils

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

const fallbackFilename = "upload"

func ValidateFileName(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if len(filename) > 255 {
		return fmt.Errorf("filename too long (max 255 characters)")
	}

	if !utf8.ValidString(filename) {
		return fmt.Errorf("filename contains invalid UTF-8 characters")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains invalid character: NUL")
	}
	return nil
}

// SanitizeFilename turns a client supplied name into a safe local file name:
// directories are dropped, whitespace becomes '_' and anything outside
// [A-Za-z0-9._-] is removed.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			continue
		}
		lastUnderscore = r == '_'
	}

	cleaned := strings.TrimLeft(b.String(), "._")
	if cleaned == "" {
		return fallbackFilename
	}
	return cleaned
}

package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedVideoExtensions lists the upload formats the gateway accepts,
// lower-case with leading dot.
var SupportedVideoExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".mkv": {},
	".avi": {},
}

// IsSupportedVideo reports whether the filename carries a supported video
// extension. The check is case-insensitive. An empty filename is not
// supported; callers decide how to treat attachments without a name.
func IsSupportedVideo(filename string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	_, ok := SupportedVideoExtensions[ext]
	return ok
}

// VideoExtensionOrDefault returns the lower-cased extension of name when it
// is a supported video format, falling back to ".mp4" otherwise.
func VideoExtensionOrDefault(name string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if _, ok := SupportedVideoExtensions[ext]; ok {
		return ext
	}
	return ".mp4"
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// RemoveDir deletes dir recursively. Missing directories are not an error.
func RemoveDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

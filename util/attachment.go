package util

import (
	"path/filepath"
	"strings"

	"github.com/lettermail/go-lettermail-server/types"
)

// DetectInlineContentType checks if the file extension is for inline content
func DetectInlineContentType(filename string) bool {
	// List of file extensions that can be displayed inline
	inlineExtensions := map[string]bool{
		".txt":  true,
		".pdf":  true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}

	// Get the file extension and convert to lowercase
	ext := strings.ToLower(filepath.Ext(filename))

	// Check if the extension exists in the map of inline content types
	_, ok := inlineExtensions[ext]

	return ok
}

// SanitizeFilename strips any path components from an uploaded filename
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// IsAllowedAttachmentExtension checks the filename against the allowed
// attachment extension list
func IsAllowedAttachmentExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	_, ok := types.ALLOWED_EXTENSIONS[ext]
	return ok
}

package constants

import "strings"

// ImageExtensions holds the allowed extensions for benchmark sample images.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot, any case) is a
// supported sample image extension.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

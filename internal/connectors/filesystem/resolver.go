package filesystem

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI or a bare path to a clean local path.
// Percent-escapes in URIs are decoded; bare paths are taken literally.
func ResolvePath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return filepath.Clean(uri)
	}

	path := strings.TrimPrefix(uri, "file://")
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		path = u.Path
	}
	return filepath.Clean(path)
}

package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"tuneshelf/internal/fileutil"
	"tuneshelf/internal/textutil"
)

// maxCollisionSuffix bounds the " (n)" search.
const maxCollisionSuffix = 10000

// Destination returns root/artist/album/title+ext with every segment sanitized.
func Destination(root, artist, album, title, ext string) string {
	ext = normalizeExt(ext)
	return filepath.Join(
		root,
		textutil.SanitizePathSegment(artist),
		textutil.SanitizePathSegment(album),
		textutil.SanitizePathSegment(title)+ext,
	)
}

// nextFree returns dest when nothing exists there, otherwise the first
// "name (n)ext" sibling that is free.
func nextFree(dest string) (string, error) {
	if !fileutil.Exists(dest) {
		return dest, nil
	}
	dir := filepath.Dir(dest)
	ext := filepath.Ext(dest)
	name := strings.TrimSuffix(filepath.Base(dest), ext)
	for n := 1; n <= maxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, n, ext))
		if !fileutil.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", dest, maxCollisionSuffix)
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

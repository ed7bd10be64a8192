// Package coverart resolves album art for a track, for consumption by the
// MPRIS bridge's Metadata ArtUrl field. It checks for a folder-level image
// file first (cheap, no write), then falls back to an embedded picture
// extracted from the file's tags and cached to disk so it can be served by
// a stable file:// URL.
package coverart

import (
	"crypto/sha1" //nolint:gosec // cache key, not a security use
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const appName = "waves"

// folderNames lists common album art filenames, checked in priority order.
var folderNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "album.jpeg", "album.png",
	"front.jpg", "front.jpeg", "front.png",
}

// ResolveArtURL returns a file:// URL pointing at album art for trackPath,
// or "" if none was found. Folder art is returned directly; embedded art is
// extracted and cached under the XDG cache directory, keyed by trackPath's
// hash so repeated lookups reuse the same file.
func ResolveArtURL(trackPath string) string {
	if path := findFolderArt(trackPath); path != "" {
		return "file://" + path
	}
	return cachedEmbeddedArtURL(trackPath)
}

func findFolderArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	for _, name := range folderNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func cachedEmbeddedArtURL(trackPath string) string {
	cachePath, ext, ok := cachedArtPath(trackPath)
	if !ok {
		return ""
	}
	if _, err := os.Stat(cachePath); err == nil {
		return "file://" + cachePath
	}

	data, mimeType, err := extractEmbeddedArt(trackPath)
	if err != nil || data == nil {
		return ""
	}
	if e := extFromMimeType(mimeType); e != "" {
		ext = e
		cachePath = cachePath[:len(cachePath)-len(filepath.Ext(cachePath))] + ext
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return ""
	}
	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		return ""
	}
	return "file://" + cachePath
}

func cachedArtPath(trackPath string) (path, ext string, ok bool) {
	h := sha1.Sum([]byte(trackPath)) //nolint:gosec
	key := hex.EncodeToString(h[:])
	ext = ".jpg"
	cachePath, err := xdg.CacheFile(filepath.Join(appName, "covers", key+ext))
	if err != nil {
		return "", "", false
	}
	return cachePath, ext, true
}

func extFromMimeType(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ""
	}
}

//go:build linux

package notify

import (
	"strings"

	"github.com/llehouerou/wavesd/internal/coverart"
)

// FindAlbumArtPath returns the path to album art for a track, if found.
// Notification servers take a plain path, so the coverart file:// URL is
// unwrapped.
func FindAlbumArtPath(trackPath string) string {
	return strings.TrimPrefix(coverart.ResolveArtURL(trackPath), "file://")
}

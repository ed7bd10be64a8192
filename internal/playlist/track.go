package playlist

import "time"

// MediaKind distinguishes a local music file from a remote podcast episode.
type MediaKind int

const (
	Music MediaKind = iota
	Podcast
)

func (k MediaKind) String() string {
	if k == Podcast {
		return "podcast"
	}
	return "music"
}

// Track is a playable item: a source URI (local path or remote URL), its
// media kind, tag metadata, and total duration (may be unknown until
// decoded). Podcast episodes carry an optional locally-cached file path,
// attached once the episode has been downloaded.
type Track struct {
	URI         string
	Kind        MediaKind
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Duration    time.Duration

	// CachedPath is set once a Podcast track's episode has been
	// downloaded to local disk; empty for Music tracks and for
	// not-yet-fetched podcast episodes.
	CachedPath string
}

// ResolvedPath returns the path the backend should open: the cached local
// copy for a fetched podcast episode, or the URI itself otherwise (a local
// file path for Music, or the remote URL for an unfetched episode).
func (t Track) ResolvedPath() string {
	if t.Kind == Podcast && t.CachedPath != "" {
		return t.CachedPath
	}
	return t.URI
}

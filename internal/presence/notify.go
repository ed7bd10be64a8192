package presence

import (
	"time"

	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/notify"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// NotifyPresence raises a desktop notification on track changes, replacing
// the previous one so the daemon never stacks a tower of now-playing
// bubbles.
type NotifyPresence struct {
	notifier     notify.Notifier
	showAlbumArt bool
	timeout      int32

	lastURI string
	lastID  uint32
}

var _ generalplayer.Presence = (*NotifyPresence)(nil)

// NewNotifyPresence wraps notifier; timeout is in milliseconds, 0 meaning
// never expire.
func NewNotifyPresence(notifier notify.Notifier, showAlbumArt bool, timeout int32) *NotifyPresence {
	return &NotifyPresence{notifier: notifier, showAlbumArt: showAlbumArt, timeout: timeout}
}

// Update implements generalplayer.Presence.
func (p *NotifyPresence) Update(track *playlist.Track, status playlist.Status, _ time.Duration) {
	if track == nil || status != playlist.Running || track.URI == p.lastURI {
		if track == nil {
			p.lastURI = ""
		}
		return
	}
	p.lastURI = track.URI

	n := notify.Notification{
		Title:      title(track),
		Body:       body(track),
		Timeout:    p.timeout,
		ReplacesID: p.lastID,
		Urgency:    notify.UrgencyLow,
	}
	if p.showAlbumArt {
		n.Icon = notify.FindAlbumArtPath(track.ResolvedPath())
	}

	id, err := p.notifier.Notify(n)
	if err == nil && id != 0 {
		p.lastID = id
	}
}

func title(t *playlist.Track) string {
	if t.Title != "" {
		return t.Title
	}
	return t.URI
}

func body(t *playlist.Track) string {
	switch {
	case t.Artist != "" && t.Album != "":
		return t.Artist + " · " + t.Album
	case t.Artist != "":
		return t.Artist
	default:
		return t.Album
	}
}

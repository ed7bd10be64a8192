package presence

import (
	"time"

	"github.com/llehouerou/wavesd/internal/lastfm"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// scrobbleFraction is the fraction of a track's duration that must elapse
// (capped at scrobbleCap, 4 minutes) before it's scrobbled; tracks shorter
// than minScrobbleLen are never scrobbled, matching Last.fm's own
// submission rules.
const (
	scrobbleFraction = 0.5
	scrobbleCap      = 4 * time.Minute
	minScrobbleLen   = 30 * time.Second
)

// LastfmPresence pushes "now playing" updates and scrobbles completed
// tracks to Last.fm. It stands in for the spec's Discord rich-presence
// bridge — no Discord RPC client exists anywhere in the retrieval pack, so
// this is the nearest "what am I listening to" surface the corpus offers
// (see DESIGN.md).
type LastfmPresence struct {
	client *lastfm.Client

	lastURI   string
	startedAt time.Time
	scrobbled bool
}

// NewLastfmPresence wraps an authenticated Last.fm client.
func NewLastfmPresence(client *lastfm.Client) *LastfmPresence {
	return &LastfmPresence{client: client}
}

// Update implements generalplayer.Presence. On a new track it resets the
// scrobble bookkeeping and sends a now-playing notification; once the
// configured fraction of the track has elapsed it scrobbles exactly once.
func (p *LastfmPresence) Update(track *playlist.Track, status playlist.Status, position time.Duration) {
	if !p.client.IsAuthenticated() || track == nil || track.Kind != playlist.Music {
		return
	}

	if track.URI != p.lastURI {
		p.lastURI = track.URI
		p.startedAt = time.Now()
		p.scrobbled = false
		go func() {
			_ = p.client.UpdateNowPlaying(scrobbleTrackFor(track, p.startedAt))
		}()
	}

	if status != playlist.Running || p.scrobbled {
		return
	}
	if track.Duration < minScrobbleLen {
		return
	}

	threshold := time.Duration(float64(track.Duration) * scrobbleFraction)
	if threshold > scrobbleCap {
		threshold = scrobbleCap
	}
	if position < threshold {
		return
	}

	p.scrobbled = true
	startedAt := p.startedAt
	go func() {
		_ = p.client.Scrobble(scrobbleTrackFor(track, startedAt))
	}()
}

func scrobbleTrackFor(track *playlist.Track, startedAt time.Time) lastfm.ScrobbleTrack {
	return lastfm.ScrobbleTrack{
		Artist:    track.Artist,
		Track:     track.Title,
		Album:     track.Album,
		Duration:  track.Duration,
		Timestamp: startedAt,
	}
}

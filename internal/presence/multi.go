package presence

import (
	"time"

	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// Multi fans a single Update call out to several presence bridges, letting
// the daemon wire MPRIS and Last.fm behind one generalplayer.Presence.
type Multi struct {
	bridges []generalplayer.Presence
}

// NewMulti returns a Presence that forwards to all of bridges.
func NewMulti(bridges ...generalplayer.Presence) *Multi {
	return &Multi{bridges: bridges}
}

// Add registers another bridge. The MPRIS adapter needs the player it
// serves, and the player needs its Presence at construction; Add breaks
// that cycle by letting the daemon wire bridges in after both exist. Not
// safe to call once playback has started.
func (m *Multi) Add(b generalplayer.Presence) {
	if b != nil {
		m.bridges = append(m.bridges, b)
	}
}

// Update implements generalplayer.Presence.
func (m *Multi) Update(track *playlist.Track, status playlist.Status, position time.Duration) {
	for _, b := range m.bridges {
		if b != nil {
			b.Update(track, status, position)
		}
	}
}

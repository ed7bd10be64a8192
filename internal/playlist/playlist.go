// Package playlist holds the ordered track list, current/next indices,
// loop-mode policy, played-index history, and persistence for a single
// player's playlist.
package playlist

import (
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoNextTrack is returned by Next (and by Previous, which falls back to
// the same selection rule once its history is exhausted) when the playlist
// is empty.
var ErrNoNextTrack = errors.New("playlist: no next track")

// Playlist is an ordered sequence of Track plus the current/next indices,
// played-index history, status, loop mode, and add-front policy spec.md §3
// names. All exported methods are safe for concurrent use.
type Playlist struct {
	mu sync.Mutex

	tracks       []Track
	currentIndex int // -1 if nothing current

	nextIndex int
	nextArmed bool

	history []int

	status   Status
	loopMode LoopMode
	addFront bool
}

// NewPlaylist returns an empty, Stopped, PlaylistCycle-mode playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		currentIndex: -1,
		loopMode:     PlaylistCycle,
	}
}

// Add appends tracks. If AddFront is set, they're inserted at the front
// instead, and the current index is shifted by the number of items added
// (spec.md §4.5 "Add policies").
func (p *Playlist) Add(tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.addFront {
		wasEmpty := len(p.tracks) == 0
		p.tracks = append(append([]Track{}, tracks...), p.tracks...)
		switch {
		case wasEmpty && p.currentIndex < 0:
			// First tracks into a fresh playlist select themselves, so
			// playback can start without an explicit selection.
			p.currentIndex = 0
		case p.currentIndex >= 0:
			p.currentIndex += len(tracks)
		}
		return
	}
	p.tracks = append(p.tracks, tracks...)
}

// SetAddFront sets the add-front policy.
func (p *Playlist) SetAddFront(v bool) {
	p.mu.Lock()
	p.addFront = v
	p.mu.Unlock()
}

// AddFront reports the current add-front policy.
func (p *Playlist) AddFront() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addFront
}

// Tracks returns a copy of the track list.
func (p *Playlist) Tracks() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Track returns a copy of the track at index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	t := p.tracks[index]
	return &t
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracks)
}

// Current returns a copy of the current track, or nil if none.
func (p *Playlist) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *Playlist) currentLocked() *Track {
	if p.currentIndex < 0 || p.currentIndex >= len(p.tracks) {
		return nil
	}
	t := p.tracks[p.currentIndex]
	return &t
}

// CurrentIndex returns the current track's index, or -1 if none.
func (p *Playlist) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIndex
}

// SetCurrentIndex sets the current index directly (used when jumping to a
// selection or restoring a saved index). Returns false if out of range.
func (p *Playlist) SetCurrentIndex(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < -1 || index >= len(p.tracks) {
		return false
	}
	p.currentIndex = index
	return true
}

// Status returns the playlist's playback status.
func (p *Playlist) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus sets the playback status (spec.md §4.5's state machine is
// enforced by the General Player, which is the only caller).
func (p *Playlist) SetStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// LoopMode returns the current loop mode.
func (p *Playlist) LoopMode() LoopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loopMode
}

// SetLoopMode sets the loop mode directly.
func (p *Playlist) SetLoopMode(m LoopMode) {
	p.mu.Lock()
	p.loopMode = m
	p.mu.Unlock()
}

// CycleLoopMode advances to the next loop mode and returns it.
func (p *Playlist) CycleLoopMode() LoopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopMode = p.loopMode.Cycle()
	return p.loopMode
}

// HasNextTrack reports whether a gapless next track is armed.
func (p *Playlist) HasNextTrack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextArmed
}

// PeekNext computes the prospective next track and index under the current
// loop mode, without arming it or mutating history. Used by enqueue_next to
// decide what to pre-fetch.
func (p *Playlist) PeekNext() (*Track, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, err := p.nextIndexLocked()
	if err != nil {
		return nil, 0, err
	}
	t := p.tracks[idx]
	return &t, idx, nil
}

// ArmNext marks index as the pre-queued gapless successor.
func (p *Playlist) ArmNext(index int) {
	p.mu.Lock()
	p.nextIndex = index
	p.nextArmed = true
	p.mu.Unlock()
}

// ClearArmedNext clears the gapless-armed marker without changing the
// current track.
func (p *Playlist) ClearArmedNext() {
	p.mu.Lock()
	p.nextArmed = false
	p.mu.Unlock()
}

// nextIndexLocked implements spec.md §4.5's next-track selection. Caller
// must hold p.mu.
func (p *Playlist) nextIndexLocked() (int, error) {
	n := len(p.tracks)
	if n == 0 {
		return 0, ErrNoNextTrack
	}
	switch p.loopMode {
	case Single:
		if p.currentIndex < 0 {
			return 0, nil
		}
		return p.currentIndex, nil
	case Random:
		return randomOtherIndex(p.currentIndex, n), nil
	default: // PlaylistCycle
		if p.currentIndex < 0 {
			return 0, nil
		}
		return (p.currentIndex + 1) % n, nil
	}
}

func randomOtherIndex(current, n int) int {
	if n == 1 {
		return 0
	}
	for {
		j := rand.IntN(n)
		if j != current {
			return j
		}
	}
}

// Next advances to the next track per spec.md §4.5: if a gapless successor
// is armed, it's adopted as current without re-selection (the Backend
// Player already has its samples queued); otherwise the next index is
// chosen per loop mode and the outgoing current index is pushed onto the
// history stack. The armed marker is left set when adopted — HasNextTrack
// stays true across the call so the General Player's start_play can detect
// that this newly-current track's samples are already queued on the
// backend and clear the marker itself once it has taken that path.
func (p *Playlist) Next() (*Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nextArmed {
		if p.currentIndex >= 0 {
			p.history = append(p.history, p.currentIndex)
		}
		p.currentIndex = p.nextIndex
		return p.currentLocked(), nil
	}

	idx, err := p.nextIndexLocked()
	if err != nil {
		return nil, err
	}
	if p.currentIndex >= 0 {
		p.history = append(p.history, p.currentIndex)
	}
	p.currentIndex = idx
	return p.currentLocked(), nil
}

// Previous pops the history stack; if it's empty, falls back to the
// loop-mode rule in spec.md §4.5 (PlaylistCycle: (i-1) mod len; Single: i;
// Random: same exclusion rule as Next).
func (p *Playlist) Previous() (*Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.history) > 0 {
		idx := p.history[len(p.history)-1]
		p.history = p.history[:len(p.history)-1]
		p.currentIndex = idx
		p.nextArmed = false
		return p.currentLocked(), nil
	}

	n := len(p.tracks)
	if n == 0 {
		return nil, ErrNoNextTrack
	}
	p.nextArmed = false
	switch p.loopMode {
	case Single:
		// currentIndex unchanged
	case Random:
		p.currentIndex = randomOtherIndex(p.currentIndex, n)
	default: // PlaylistCycle
		if p.currentIndex < 0 {
			p.currentIndex = 0
		} else {
			p.currentIndex = ((p.currentIndex-1)%n + n) % n
		}
	}
	return p.currentLocked(), nil
}

// Remove deletes the track at index, adjusting the current index and
// history to stay consistent. Returns false if index is out of range.
func (p *Playlist) Remove(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)

	switch {
	case p.currentIndex > index:
		p.currentIndex--
	case p.currentIndex == index:
		if p.currentIndex >= len(p.tracks) {
			p.currentIndex = len(p.tracks) - 1
		}
	}
	p.history = adjustHistory(p.history, index)
	return true
}

func adjustHistory(history []int, removed int) []int {
	out := history[:0]
	for _, idx := range history {
		switch {
		case idx == removed:
			continue
		case idx > removed:
			out = append(out, idx-1)
		default:
			out = append(out, idx)
		}
	}
	return out
}

// RemoveDeletedItems drops every Music track for which exists returns false
// (used by ReloadPlaylist to prune local files that vanished since load;
// podcast episodes are kept without calling exists),
// re-deriving the current index from the current track's URI rather than
// resetting it to zero.
func (p *Playlist) RemoveDeletedItems(exists func(uri string) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var currentURI string
	if c := p.currentLocked(); c != nil {
		currentURI = c.URI
	}

	kept := p.tracks[:0]
	for _, t := range p.tracks {
		if t.Kind == Music && !exists(t.URI) {
			continue
		}
		kept = append(kept, t)
	}
	p.tracks = kept
	p.relocateCurrentLocked(currentURI)
	p.history = nil
}

// Shuffle randomly permutes the track list. The current track's index is
// re-derived by URI match afterward, since a positional index would
// otherwise point at an unrelated track.
func (p *Playlist) Shuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	var currentURI string
	if c := p.currentLocked(); c != nil {
		currentURI = c.URI
	}

	rand.Shuffle(len(p.tracks), func(i, j int) {
		p.tracks[i], p.tracks[j] = p.tracks[j], p.tracks[i]
	})

	p.relocateCurrentLocked(currentURI)
	p.history = nil
}

// relocateCurrentLocked re-derives currentIndex by matching uri against the
// (possibly reordered or shrunk) track list. Caller must hold p.mu.
func (p *Playlist) relocateCurrentLocked(uri string) {
	if uri == "" {
		if p.currentIndex >= len(p.tracks) {
			p.currentIndex = len(p.tracks) - 1
		}
		return
	}
	for i, t := range p.tracks {
		if t.URI == uri {
			p.currentIndex = i
			return
		}
	}
	p.currentIndex = -1
}

// Clear empties the playlist and resets current/next/history state.
func (p *Playlist) Clear() {
	p.mu.Lock()
	p.tracks = nil
	p.currentIndex = -1
	p.nextArmed = false
	p.history = nil
	p.mu.Unlock()
}

// Move relocates the track at fromIndex to toIndex, leaving currentIndex
// pointed at the same track identity it held before the move.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.tracks)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	var currentURI string
	if c := p.currentLocked(); c != nil {
		currentURI = c.URI
	}

	track := p.tracks[fromIndex]
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	p.tracks = append(p.tracks, Track{})
	copy(p.tracks[toIndex+1:], p.tracks[toIndex:])
	p.tracks[toIndex] = track

	p.relocateCurrentLocked(currentURI)
	return true
}

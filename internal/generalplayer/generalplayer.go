// Package generalplayer orchestrates a Playlist and a Backend Player: the
// single owner of playback/playlist state mutation, exposing the
// start_play/next/previous/toggle_pause/seek_relative/enqueue_next
// operations the daemon's command dispatch table drives.
package generalplayer

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/llehouerou/wavesd/internal/backendplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// ErrNoCurrentTrack is returned by StartPlay when the playlist has no
// current track to play (e.g. it's empty).
var ErrNoCurrentTrack = errors.New("generalplayer: no current track")

// longTrackThreshold is the "≥ 10 min" cutoff shared by the Auto seek step
// and the Auto position-persistence policy.
const longTrackThreshold = 10 * time.Minute

// SeekStep selects the magnitude of a relative seek.
type SeekStep int

const (
	SeekShort SeekStep = iota
	SeekLong
	SeekAuto
)

// PositionPolicy controls whether playback position is saved/restored
// across sessions.
type PositionPolicy int

const (
	PositionNo PositionPolicy = iota
	PositionYes
	PositionAuto
)

// Presence is the MPRIS/Discord presence bridge; implementations must
// tolerate being called frequently and must not block.
type Presence interface {
	Update(track *playlist.Track, status playlist.Status, position time.Duration)
}

// PositionStore persists a single track's last playback position, keyed by
// URI. Music and podcast tracks use separate stores (spec.md §4.6).
type PositionStore interface {
	Load(uri string) (time.Duration, bool)
	Save(uri string, pos time.Duration)
	Reset(uri string)
}

// GeneralPlayer holds a Playlist, a Backend Player, and the
// need_proceed_to_next flag distinguishing "play current" from "advance
// then play" on the first vs. subsequent call to StartPlay.
type GeneralPlayer struct {
	mu sync.Mutex

	playlist *playlist.Playlist
	backend  *backendplayer.BackendPlayer
	presence Presence

	musicPositions   PositionStore
	podcastPositions PositionStore

	seekStep   SeekStep
	savePolicy PositionPolicy

	needProceedToNext bool

	eosSink func()
}

// New returns a GeneralPlayer wired to pl and backend. presence,
// musicPositions, and podcastPositions may be nil (no-op).
func New(
	pl *playlist.Playlist,
	backend *backendplayer.BackendPlayer,
	presence Presence,
	musicPositions, podcastPositions PositionStore,
	seekStep SeekStep,
	savePolicy PositionPolicy,
) *GeneralPlayer {
	return &GeneralPlayer{
		playlist:         pl,
		backend:          backend,
		presence:         presence,
		musicPositions:   musicPositions,
		podcastPositions: podcastPositions,
		seekStep:         seekStep,
		savePolicy:       savePolicy,
	}
}

// SetSeekStep updates the relative-seek magnitude policy (ReloadConfig).
func (g *GeneralPlayer) SetSeekStep(s SeekStep) {
	g.mu.Lock()
	g.seekStep = s
	g.mu.Unlock()
}

// SetSavePolicy updates the position save/restore policy (ReloadConfig).
func (g *GeneralPlayer) SetSavePolicy(p PositionPolicy) {
	g.mu.Lock()
	g.savePolicy = p
	g.mu.Unlock()
}

// Playlist returns the underlying playlist, for read-only status queries
// (FetchStatus, GetProgress's current-index component).
func (g *GeneralPlayer) Playlist() *playlist.Playlist { return g.playlist }

// Backend returns the underlying backend player, for read-only queries
// (GetProgress, VolumeUp/Down, SpeedUp/Down).
func (g *GeneralPlayer) Backend() *backendplayer.BackendPlayer { return g.backend }

// StartPlay implements spec.md §4.6's start_play: it advances the playlist
// (or consumes the proceed flag on the very first call), then either takes
// the gapless hand-off path (samples already queued on the backend) or
// loads and plays the current track fresh, restoring the last-played
// position per policy.
func (g *GeneralPlayer) StartPlay() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.playlist.Status() {
	case playlist.Stopped, playlist.Paused:
		g.playlist.SetStatus(playlist.Running)
	}

	if g.needProceedToNext {
		if _, err := g.playlist.Next(); err != nil {
			return err
		}
	} else {
		g.needProceedToNext = true
	}

	current := g.playlist.Current()
	if current == nil {
		return ErrNoCurrentTrack
	}

	if g.playlist.HasNextTrack() {
		g.playlist.ClearArmedNext()
		g.backend.AdoptPendingNext()
		g.backend.MessageOnEnd(g.onTrackEnd)
		g.notifyPresenceLocked(current)
		return nil
	}

	if err := g.backend.AddAndPlay(current.ResolvedPath()); err != nil {
		return err
	}
	g.notifyPresenceLocked(current)
	g.restoreLastPositionLocked(current)
	g.backend.MessageOnEnd(g.onTrackEnd)
	return nil
}

// SetEosSink routes end-of-stream signals into fn instead of handling them
// inline. The daemon installs its internal event channel here so Eos is
// dispatched on the command loop, strictly after the Progress events the
// same source produced; without a sink (tests, embedded use) end-of-stream
// is handled directly.
func (g *GeneralPlayer) SetEosSink(fn func()) {
	g.mu.Lock()
	g.eosSink = fn
	g.mu.Unlock()
}

// onTrackEnd is armed via backend.MessageOnEnd and fires once the current
// track ends naturally.
func (g *GeneralPlayer) onTrackEnd() {
	g.mu.Lock()
	sink := g.eosSink
	g.mu.Unlock()
	if sink != nil {
		sink()
		return
	}
	_ = g.HandleEos()
}

// HandleEos is the end-of-stream protocol: if the playlist is empty, stop;
// otherwise advance and start playing. It fires from the armed MessageOnEnd
// callback and from an explicit Eos command on the IPC surface.
func (g *GeneralPlayer) HandleEos() error {
	if g.playlist.Len() == 0 {
		return g.Stop()
	}
	return g.StartPlay()
}

// RefreshPresence re-pushes the current track/status/position to the
// presence bridges (the periodic Tick command's MPRIS refresh).
func (g *GeneralPlayer) RefreshPresence() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notifyPresenceLocked(g.playlist.Current())
}

// Next implements spec.md §4.6's next: if a current track exists, clears
// the armed next-track marker and requests a skip of the currently playing
// chain (the actual advance happens when the resulting end-of-stream fires
// onTrackEnd); otherwise stops.
func (g *GeneralPlayer) Next() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playlist.Current() == nil {
		return g.stopLocked()
	}
	g.playlist.ClearArmedNext()
	g.backend.SkipOne()
	return nil
}

// PlaySelected plays the playlist entry at index (or the current one when
// index is negative): the last position is saved, the proceed flag is
// cleared so the selection plays as-is rather than being advanced past, and
// the currently playing chain is skipped out of the way.
func (g *GeneralPlayer) PlaySelected(index int) error {
	g.mu.Lock()
	g.saveLastPositionLocked()
	if index >= 0 {
		g.playlist.SetCurrentIndex(index)
	}
	g.needProceedToNext = false
	g.mu.Unlock()
	return g.Next()
}

// Previous implements spec.md §4.6's previous: playlist.previous(), clear
// need_proceed_to_next, then Next() (which skips the currently playing
// chain so the newly-selected previous track takes over).
func (g *GeneralPlayer) Previous() error {
	g.mu.Lock()
	if _, err := g.playlist.Previous(); err != nil {
		g.mu.Unlock()
		return err
	}
	g.needProceedToNext = false
	g.mu.Unlock()
	return g.Next()
}

// TogglePause transitions Running<->Paused, forwarding to the backend and
// presence bridge; Stopped is a no-op.
func (g *GeneralPlayer) TogglePause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.playlist.Status() {
	case playlist.Running:
		g.backend.Pause()
		g.playlist.SetStatus(playlist.Paused)
	case playlist.Paused:
		g.backend.Resume()
		g.playlist.SetStatus(playlist.Running)
	default:
		return
	}
	g.notifyPresenceLocked(g.playlist.Current())
}

// SeekRelative offsets the current position by the configured seek step's
// magnitude, in the direction forward indicates.
func (g *GeneralPlayer) SeekRelative(forward bool) error {
	g.mu.Lock()
	magnitude := g.seekMagnitudeLocked(g.playlist.Current())
	g.mu.Unlock()

	if !forward {
		magnitude = -magnitude
	}
	return g.backend.Seek(magnitude)
}

func (g *GeneralPlayer) seekMagnitudeLocked(current *playlist.Track) time.Duration {
	switch g.seekStep {
	case SeekLong:
		return 30 * time.Second
	case SeekAuto:
		if current != nil && current.Duration >= longTrackThreshold {
			return 30 * time.Second
		}
		return 5 * time.Second
	default:
		return 5 * time.Second
	}
}

// Stop tears down playback and resets the proceed flag.
func (g *GeneralPlayer) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopLocked()
}

func (g *GeneralPlayer) stopLocked() error {
	g.backend.Stop()
	g.playlist.SetStatus(playlist.Stopped)
	g.needProceedToNext = false
	g.notifyPresenceLocked(nil)
	return nil
}

// EnqueueNext implements spec.md §4.6's enqueue_next: if no next track is
// already armed, it peeks the playlist's prospective next track, arms it,
// and asks the backend to pre-queue its samples.
func (g *GeneralPlayer) EnqueueNext() error {
	g.mu.Lock()
	if g.playlist.HasNextTrack() {
		g.mu.Unlock()
		return nil
	}
	track, idx, err := g.playlist.PeekNext()
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.playlist.ArmNext(idx)
	g.mu.Unlock()

	return g.backend.EnqueueNext(track.ResolvedPath())
}

// HandleAboutToFinish implements spec.md §4.7's AboutToFinish row: when
// gapless playback is enabled and no next track is armed yet, pre-queue
// one.
func (g *GeneralPlayer) HandleAboutToFinish() error {
	if !g.backend.Gapless() {
		return nil
	}
	return g.EnqueueNext()
}

// SetNextDuration implements spec.md §4.7's DurationNext row: updates the
// cached duration of an already-armed next track.
func (g *GeneralPlayer) SetNextDuration(d time.Duration) {
	g.backend.SetArmedNextDuration(d)
}

// SaveLastPosition persists the current track's position per the
// configured policy (called by the daemon before SkipNext/SkipPrevious and
// on Quit, spec.md §4.7; PlaySelected saves through saveLastPositionLocked
// itself).
func (g *GeneralPlayer) SaveLastPosition() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveLastPositionLocked()
}

func (g *GeneralPlayer) saveLastPositionLocked() {
	current := g.playlist.Current()
	if current == nil {
		return
	}
	if !g.shouldPersistPositionLocked(current.Duration) {
		return
	}
	store := g.positionStoreForLocked(current)
	if store == nil {
		return
	}
	pos, _ := g.backend.GetProgress()
	store.Save(current.URI, pos)
}

// restoreLastPositionLocked seeks to a previously saved position per
// policy, then resets the stored position to zero on success so the next
// play starts fresh unless explicitly re-saved.
func (g *GeneralPlayer) restoreLastPositionLocked(current *playlist.Track) {
	if !g.shouldPersistPositionLocked(current.Duration) {
		return
	}
	store := g.positionStoreForLocked(current)
	if store == nil {
		return
	}
	pos, ok := store.Load(current.URI)
	if !ok {
		return
	}
	if err := g.backend.SeekTo(pos); err == nil {
		store.Reset(current.URI)
	}
}

func (g *GeneralPlayer) shouldPersistPositionLocked(d time.Duration) bool {
	switch g.savePolicy {
	case PositionYes:
		return true
	case PositionAuto:
		return d >= longTrackThreshold
	default:
		return false
	}
}

func (g *GeneralPlayer) positionStoreForLocked(t *playlist.Track) PositionStore {
	if t.Kind == playlist.Podcast {
		return g.podcastPositions
	}
	return g.musicPositions
}

func (g *GeneralPlayer) notifyPresenceLocked(current *playlist.Track) {
	if g.presence == nil {
		return
	}
	pos, _ := g.backend.GetProgress()
	g.presence.Update(current, g.playlist.Status(), pos)
}

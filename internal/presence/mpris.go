//go:build linux

// Package presence bridges GeneralPlayer state to external "now playing"
// surfaces: MPRIS over D-Bus (so desktop shells and media keys can see and
// control the daemon) and Last.fm (standing in for the spec's Discord rich
// presence, since no Discord RPC library exists anywhere in the retrieval
// pack — see DESIGN.md).
package presence

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavesd/internal/coverart"
	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// MPRISAdapter exposes a GeneralPlayer over org.mpris.MediaPlayer2 and
// implements generalplayer.Presence so the player pushes its state into the
// adapter's cache on every transition.
type MPRISAdapter struct {
	player *generalplayer.GeneralPlayer
	srv    *server.Server

	mu       sync.Mutex
	track    *playlist.Track
	status   playlist.Status
	position time.Duration
}

// NewMPRISAdapter creates and starts serving an MPRIS adapter over D-Bus for
// player.
func NewMPRISAdapter(player *generalplayer.GeneralPlayer) (*MPRISAdapter, error) {
	a := &MPRISAdapter{player: player}
	a.srv = server.NewServer("waves", &mprisRoot{}, &mprisPlayer{adapter: a})

	go func() {
		_ = a.srv.Listen()
	}()

	return a, nil
}

// Close stops serving the adapter.
func (a *MPRISAdapter) Close() error {
	return a.srv.Stop()
}

// Update implements generalplayer.Presence: it caches the latest
// track/status/position for the pull-based MPRIS property queries below.
func (a *MPRISAdapter) Update(track *playlist.Track, status playlist.Status, position time.Duration) {
	a.mu.Lock()
	a.track = track
	a.status = status
	a.position = position
	a.mu.Unlock()
}

func (a *MPRISAdapter) snapshot() (*playlist.Track, playlist.Status, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.track, a.status, a.position
}

// mprisRoot implements OrgMprisMediaPlayer2Adapter; the daemon doesn't
// support being raised or quit remotely.
type mprisRoot struct{}

func (r *mprisRoot) Raise() error                { return nil }
func (r *mprisRoot) Quit() error                 { return nil }
func (r *mprisRoot) CanQuit() (bool, error)      { return false, nil }
func (r *mprisRoot) CanRaise() (bool, error)     { return false, nil }
func (r *mprisRoot) HasTrackList() (bool, error) { return false, nil }
func (r *mprisRoot) Identity() (string, error)   { return "waves", nil }

//nolint:revive // method name required by interface
func (r *mprisRoot) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *mprisRoot) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp3", "audio/ogg"}, nil
}

// mprisPlayer implements OrgMprisMediaPlayer2PlayerAdapter, delegating
// transport controls to the GeneralPlayer and answering property queries
// from the adapter's cached snapshot.
type mprisPlayer struct {
	adapter *MPRISAdapter
}

func (p *mprisPlayer) Next() error     { return p.adapter.player.Next() }
func (p *mprisPlayer) Previous() error { return p.adapter.player.Previous() }

func (p *mprisPlayer) Pause() error {
	p.adapter.player.TogglePause()
	return nil
}

func (p *mprisPlayer) PlayPause() error {
	p.adapter.player.TogglePause()
	return nil
}

func (p *mprisPlayer) Stop() error {
	return p.adapter.player.Stop()
}

func (p *mprisPlayer) Play() error {
	return p.adapter.player.StartPlay()
}

func (p *mprisPlayer) Seek(offset types.Microseconds) error {
	return p.adapter.player.SeekRelative(offset >= 0)
}

func (p *mprisPlayer) SetPosition(_ string, _ types.Microseconds) error {
	return nil // absolute seek isn't part of the daemon's IPC surface
}

//nolint:revive // method name required by interface
func (p *mprisPlayer) OpenUri(_ string) error { return nil }

func (p *mprisPlayer) PlaybackStatus() (types.PlaybackStatus, error) {
	_, status, _ := p.adapter.snapshot()
	switch status {
	case playlist.Running:
		return types.PlaybackStatusPlaying, nil
	case playlist.Paused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *mprisPlayer) Rate() (float64, error)        { return 1.0, nil }
func (p *mprisPlayer) SetRate(_ float64) error       { return nil }
func (p *mprisPlayer) Volume() (float64, error)      { return 1.0, nil }
func (p *mprisPlayer) SetVolume(_ float64) error     { return nil }
func (p *mprisPlayer) MinimumRate() (float64, error) { return 1.0, nil }
func (p *mprisPlayer) MaximumRate() (float64, error) { return 1.0, nil }

func (p *mprisPlayer) Position() (int64, error) {
	_, _, pos := p.adapter.snapshot()
	return pos.Microseconds(), nil
}

func (p *mprisPlayer) Metadata() (types.Metadata, error) {
	track, _, _ := p.adapter.snapshot()
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.URI)),
		Length:      types.Microseconds(track.Duration.Microseconds()),
		Title:       track.Title,
		Artist:      []string{track.Artist},
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
	}

	if artURL := coverart.ResolveArtURL(track.ResolvedPath()); artURL != "" {
		meta.ArtUrl = artURL
	}

	return meta, nil
}

func (p *mprisPlayer) CanGoNext() (bool, error) {
	return p.adapter.player.Playlist().HasNextTrack() || p.adapter.player.Playlist().Len() > 0, nil
}

func (p *mprisPlayer) CanGoPrevious() (bool, error) {
	return p.adapter.player.Playlist().CurrentIndex() > 0, nil
}

func (p *mprisPlayer) CanPlay() (bool, error) {
	return p.adapter.player.Playlist().Len() > 0, nil
}

func (p *mprisPlayer) CanPause() (bool, error)   { return true, nil }
func (p *mprisPlayer) CanSeek() (bool, error)    { return true, nil }
func (p *mprisPlayer) CanControl() (bool, error) { return true, nil }

func (p *mprisPlayer) LoopStatus() (types.LoopStatus, error) {
	switch p.adapter.player.Playlist().LoopMode() {
	case playlist.Single:
		return types.LoopStatusTrack, nil
	case playlist.PlaylistCycle:
		return types.LoopStatusPlaylist, nil
	default:
		return types.LoopStatusNone, nil
	}
}

func (p *mprisPlayer) SetLoopStatus(status types.LoopStatus) error {
	pl := p.adapter.player.Playlist()
	switch status {
	case types.LoopStatusTrack:
		pl.SetLoopMode(playlist.Single)
	case types.LoopStatusPlaylist:
		pl.SetLoopMode(playlist.PlaylistCycle)
	case types.LoopStatusNone:
		pl.SetLoopMode(playlist.Random)
	}
	return nil
}

func (p *mprisPlayer) Shuffle() (bool, error) {
	return p.adapter.player.Playlist().LoopMode() == playlist.Random, nil
}

func (p *mprisPlayer) SetShuffle(shuffle bool) error {
	if shuffle {
		p.adapter.player.Playlist().SetLoopMode(playlist.Random)
		p.adapter.player.Playlist().Shuffle()
	}
	return nil
}

func formatTrackID(uri string) string {
	h := fnv.New64a()
	h.Write([]byte(uri))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

package generalplayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavesd/internal/backendplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// These tests avoid any path that reaches backendplayer.AddAndPlay's
// speaker.Init (real output device) with a decodable file — exercising
// that needs actual audio hardware, which the teacher's own test suite
// never assumes either. Where AddAndPlay is exercised, it's with a
// nonexistent path: decode.Decode fails at the file-open stage, well
// before any device touch, which is enough to exercise StartPlay's
// control flow and error propagation.

type fakeStore struct {
	saved  map[string]time.Duration
	resets map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]time.Duration{}, resets: map[string]bool{}}
}

func (f *fakeStore) Load(uri string) (time.Duration, bool) {
	d, ok := f.saved[uri]
	return d, ok
}
func (f *fakeStore) Save(uri string, pos time.Duration) { f.saved[uri] = pos }
func (f *fakeStore) Reset(uri string)                   { f.resets[uri] = true; delete(f.saved, uri) }

type fakePresence struct {
	calls int
	last  playlist.Status
}

func (f *fakePresence) Update(_ *playlist.Track, status playlist.Status, _ time.Duration) {
	f.calls++
	f.last = status
}

func newTestPlayer() (*GeneralPlayer, *playlist.Playlist, *fakePresence, *fakeStore, *fakeStore) {
	pl := playlist.NewPlaylist()
	backend := backendplayer.New()
	presence := &fakePresence{}
	music := newFakeStore()
	podcast := newFakeStore()
	g := New(pl, backend, presence, music, podcast, SeekShort, PositionNo)
	return g, pl, presence, music, podcast
}

func TestStartPlayErrorsOnEmptyPlaylist(t *testing.T) {
	g, _, _, _, _ := newTestPlayer()
	err := g.StartPlay()
	assert.ErrorIs(t, err, ErrNoCurrentTrack)
}

func TestStartPlayPropagatesDecodeErrorForMissingFile(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	pl.Add(playlist.Track{URI: "/no/such/file.mp3", Kind: playlist.Music})
	pl.SetCurrentIndex(0)

	err := g.StartPlay()
	assert.Error(t, err)
}

func TestNextStopsWhenNoCurrentTrack(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	pl.SetStatus(playlist.Running)
	require.NoError(t, g.Next())
	assert.Equal(t, playlist.Stopped, pl.Status())
}

func TestNextClearsArmedAndSkips(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	pl.Add(playlist.Track{URI: "a"}, playlist.Track{URI: "b"})
	pl.SetCurrentIndex(0)
	pl.ArmNext(1)

	require.NoError(t, g.Next())
	assert.False(t, pl.HasNextTrack())
}

func TestTogglePauseIsNoopWhenStopped(t *testing.T) {
	g, pl, presence, _, _ := newTestPlayer()
	pl.SetStatus(playlist.Stopped)
	g.TogglePause()
	assert.Equal(t, playlist.Stopped, pl.Status())
	assert.Equal(t, 0, presence.calls)
}

func TestTogglePauseRunningToPaused(t *testing.T) {
	g, pl, presence, _, _ := newTestPlayer()
	pl.SetStatus(playlist.Running)
	g.TogglePause()
	assert.Equal(t, playlist.Paused, pl.Status())
	assert.Equal(t, 1, presence.calls)
	assert.Equal(t, playlist.Paused, presence.last)
}

func TestSeekRelativeShortStep(t *testing.T) {
	g, _, _, _, _ := newTestPlayer()
	require.NoError(t, g.SeekRelative(true))
}

func TestSeekMagnitudeAutoUsesLongStepForLongTrack(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	g.SetSeekStep(SeekAuto)
	pl.Add(playlist.Track{URI: "a", Duration: 20 * time.Minute})
	pl.SetCurrentIndex(0)

	got := g.seekMagnitudeLocked(pl.Current())
	assert.Equal(t, 30*time.Second, got)
}

func TestSeekMagnitudeAutoUsesShortStepForShortTrack(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	g.SetSeekStep(SeekAuto)
	pl.Add(playlist.Track{URI: "a", Duration: 2 * time.Minute})
	pl.SetCurrentIndex(0)

	got := g.seekMagnitudeLocked(pl.Current())
	assert.Equal(t, 5*time.Second, got)
}

func TestSaveLastPositionRespectsPolicyNo(t *testing.T) {
	g, pl, _, music, _ := newTestPlayer()
	pl.Add(playlist.Track{URI: "/a", Duration: 20 * time.Minute})
	pl.SetCurrentIndex(0)

	g.SaveLastPosition()
	_, ok := music.Load("/a")
	assert.False(t, ok)
}

func TestSaveAndRestorePositionYesPolicy(t *testing.T) {
	g, pl, _, music, _ := newTestPlayer()
	g.SetSavePolicy(PositionYes)
	pl.Add(playlist.Track{URI: "/a", Duration: 1 * time.Minute})
	pl.SetCurrentIndex(0)
	music.Save("/a", 42*time.Second)

	g.mu.Lock()
	g.restoreLastPositionLocked(pl.Current())
	g.mu.Unlock()

	_, ok := music.Load("/a")
	assert.False(t, ok, "position should be reset to zero after a successful restore")
}

func TestSaveLastPositionUsesPodcastStoreForPodcastTracks(t *testing.T) {
	g, pl, _, music, podcast := newTestPlayer()
	g.SetSavePolicy(PositionYes)
	pl.Add(playlist.Track{URI: "https://feed/ep1", Kind: playlist.Podcast, Duration: time.Minute})
	pl.SetCurrentIndex(0)

	g.SaveLastPosition()

	_, musicHas := music.Load("https://feed/ep1")
	assert.False(t, musicHas)
	assert.Contains(t, podcast.saved, "https://feed/ep1")
}

func TestEnqueueNextNoopWhenAlreadyArmed(t *testing.T) {
	g, pl, _, _, _ := newTestPlayer()
	pl.Add(playlist.Track{URI: "a"}, playlist.Track{URI: "b"})
	pl.SetCurrentIndex(0)
	pl.ArmNext(1)

	require.NoError(t, g.EnqueueNext())
}

func TestEnqueueNextErrorsOnEmptyPlaylist(t *testing.T) {
	g, _, _, _, _ := newTestPlayer()
	err := g.EnqueueNext()
	assert.Error(t, err)
}

func TestHandleAboutToFinishNoopWhenNotGapless(t *testing.T) {
	g, _, _, _, _ := newTestPlayer()
	assert.NoError(t, g.HandleAboutToFinish())
}

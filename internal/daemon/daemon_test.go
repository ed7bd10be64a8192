package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavesd/internal/backendplayer"
	"github.com/llehouerou/wavesd/internal/config"
	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// testDaemon runs a daemon over a short-path socket and tears it down with
// the test. None of the exercised commands reach the audio device, so the
// backing Sink never opens one.
func testDaemon(t *testing.T, configure func(*Options), tracks ...playlist.Track) (*Daemon, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "wavesd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	pl := playlist.NewPlaylist()
	pl.Add(tracks...)
	backend := backendplayer.New()
	player := generalplayer.New(pl, backend, nil, nil, nil, generalplayer.SeekAuto, generalplayer.PositionNo)

	opts := Options{
		Config:       &config.Config{SocketDir: dir},
		PlaylistPath: filepath.Join(dir, "playlist.log"),
		Probe: func(path string) (playlist.Track, error) {
			return playlist.Track{URI: path, Kind: playlist.Music}, nil
		},
	}
	if configure != nil {
		configure(&opts)
	}
	d := New(player, opts)

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run() }()

	socket := SocketPath(dir)
	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	t.Cleanup(func() {
		d.Quit()
		select {
		case err := <-runErr:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("daemon did not shut down")
		}
	})

	return d, socket
}

func TestProcessIDQuery(t *testing.T) {
	_, socket := testDaemon(t, nil)

	reply, err := Send(socket, PlayerCmd{Kind: CmdProcessID})
	require.NoError(t, err)
	assert.Equal(t, ReplyInt, reply.Kind)
	assert.Equal(t, int64(os.Getpid()), reply.Int)
}

func TestFetchStatusInitiallyStopped(t *testing.T) {
	_, socket := testDaemon(t, nil)

	reply, err := Send(socket, PlayerCmd{Kind: CmdFetchStatus})
	require.NoError(t, err)
	assert.Equal(t, ReplyStatus, reply.Kind)
	assert.Equal(t, int64(playlist.Stopped), reply.Int)
}

func TestVolumeUpSaturates(t *testing.T) {
	d, socket := testDaemon(t, nil)

	d.player.Backend().SetVolume(80)
	reply, err := Send(socket, PlayerCmd{Kind: CmdVolumeUp})
	require.NoError(t, err)
	assert.Equal(t, int64(90), reply.Int)

	d.player.Backend().SetVolume(98)
	reply, err = Send(socket, PlayerCmd{Kind: CmdVolumeUp})
	require.NoError(t, err)
	assert.Equal(t, int64(100), reply.Int)
}

func TestCycleLoopIsPeriodThree(t *testing.T) {
	d, socket := testDaemon(t, nil)

	start := d.player.Playlist().LoopMode()
	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		reply, err := Send(socket, PlayerCmd{Kind: CmdCycleLoop})
		require.NoError(t, err)
		assert.Equal(t, ReplyLoopMode, reply.Kind)
		seen[reply.Int] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, start, d.player.Playlist().LoopMode())
}

func TestToggleGapless(t *testing.T) {
	d, socket := testDaemon(t, nil)

	before := d.player.Backend().Gapless()
	reply, err := Send(socket, PlayerCmd{Kind: CmdToggleGapless})
	require.NoError(t, err)
	assert.Equal(t, ReplyBool, reply.Kind)
	assert.Equal(t, !before, reply.Bool)
	assert.Equal(t, !before, d.player.Backend().Gapless())
}

func TestAddAndRemoveTrack(t *testing.T) {
	d, socket := testDaemon(t, nil)

	_, err := Send(socket, PlayerCmd{Kind: CmdAddTrack, URI: "/music/one.flac"})
	require.NoError(t, err)
	_, err = Send(socket, PlayerCmd{Kind: CmdAddTrack, URI: "/music/two.flac"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return d.player.Playlist().Len() == 2
	}, time.Second, 10*time.Millisecond)

	_, err = Send(socket, PlayerCmd{Kind: CmdRemoveTrack, Index: 0})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return d.player.Playlist().Len() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "/music/two.flac", d.player.Playlist().Tracks()[0].URI)
}

func TestGetProgressReportsCurrentIndex(t *testing.T) {
	d, socket := testDaemon(t, nil,
		playlist.Track{URI: "/music/a.flac", Kind: playlist.Music},
		playlist.Track{URI: "/music/b.flac", Kind: playlist.Music},
	)
	d.player.Playlist().SetCurrentIndex(1)

	reply, err := Send(socket, PlayerCmd{Kind: CmdGetProgress})
	require.NoError(t, err)
	assert.Equal(t, ReplyProgress, reply.Kind)
	assert.Equal(t, 1, reply.TrackIndex)
}

func TestMalformedRequestLeavesServerRunning(t *testing.T) {
	_, socket := testDaemon(t, nil)

	_, err := Send(socket, PlayerCmd{Kind: CmdInvalid})
	// The server closes without a reply; the empty read maps to ReplyNone.
	require.NoError(t, err)

	reply, err := Send(socket, PlayerCmd{Kind: CmdProcessID})
	require.NoError(t, err)
	assert.Equal(t, int64(os.Getpid()), reply.Int)
}

func TestSavePlaylistWritesFile(t *testing.T) {
	d, socket := testDaemon(t, nil,
		playlist.Track{URI: "/music/a.flac", Kind: playlist.Music},
	)

	_, err := Send(socket, PlayerCmd{Kind: CmdSavePlaylist})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data, readErr := os.ReadFile(d.opts.PlaylistPath)
		return readErr == nil && len(data) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestQuitStopsRun(t *testing.T) {
	dir, err := os.MkdirTemp("", "wavesd")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	pl := playlist.NewPlaylist()
	player := generalplayer.New(pl, backendplayer.New(), nil, nil, nil, generalplayer.SeekAuto, generalplayer.PositionNo)
	d := New(player, Options{Config: &config.Config{SocketDir: dir}})

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run() }()

	socket := SocketPath(dir)
	require.Eventually(t, func() bool {
		_, statErr := os.Stat(socket)
		return statErr == nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = Send(socket, PlayerCmd{Kind: CmdQuit})
	require.NoError(t, err)

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestHandleProgressArmsAboutToFinish(t *testing.T) {
	// Not started: the event queue is inspected directly, without the
	// running loop consuming it.
	pl := playlist.NewPlaylist()
	pl.Add(
		playlist.Track{URI: "/music/a.flac", Kind: playlist.Music},
		playlist.Track{URI: "/music/b.flac", Kind: playlist.Music},
	)
	player := generalplayer.New(pl, backendplayer.New(), nil, nil, nil, generalplayer.SeekAuto, generalplayer.PositionNo)
	d := New(player, Options{Config: &config.Config{}})

	d.player.Backend().SetGapless(true)
	d.player.Backend().SetTotalDuration(3 * time.Minute)
	d.player.Playlist().SetCurrentIndex(0)

	d.handleProgress(3*time.Minute - time.Second)

	cmd, ok := d.events.Pop()
	require.True(t, ok)
	assert.Equal(t, CmdAboutToFinish, cmd.Kind)
}

func TestFetchLyricsWithFetcher(t *testing.T) {
	d, socket := testDaemon(t, func(opts *Options) {
		opts.Lyrics = fetcherFunc(func(_ context.Context, artist, title string, _ time.Duration) (string, error) {
			return artist + "/" + title, nil
		})
	},
		playlist.Track{URI: "/music/a.flac", Kind: playlist.Music, Artist: "x", Title: "y"},
	)
	d.player.Playlist().SetCurrentIndex(0)

	reply, err := Send(socket, PlayerCmd{Kind: CmdFetchLyrics})
	require.NoError(t, err)
	assert.Equal(t, ReplyText, reply.Kind)
	assert.Equal(t, "x/y", reply.Text)
}

type fetcherFunc func(ctx context.Context, artist, title string, duration time.Duration) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, artist, title string, duration time.Duration) (string, error) {
	return f(ctx, artist, title, duration)
}

// Package daemon is the command loop: a unix-socket IPC listener whose
// typed commands, together with the engine's internal event channel, are
// dispatched single-threaded against the General Player.
package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/llehouerou/wavesd/internal/config"
	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

const (
	tickInterval = time.Second

	// aboutToFinishLead is how close to a track's end the daemon raises
	// AboutToFinish, derived from the Progress stream.
	aboutToFinishLead = 2 * time.Second

	lyricsTimeout = 5 * time.Second
)

// LyricsFetcher resolves lyrics for a track; the daemon's FetchLyrics query
// is its only consumer.
type LyricsFetcher interface {
	Fetch(ctx context.Context, artist, title string, duration time.Duration) (string, error)
}

// Options carries the collaborators the command loop needs beyond the
// player itself. Probe and LookupPodcast feed playlist reload and AddTrack;
// ReloadConfig re-reads the on-disk configuration; Lyrics may be nil.
type Options struct {
	Config        *config.Config
	PlaylistPath  string
	Probe         playlist.ProbeFunc
	LookupPodcast playlist.PodcastLookupFunc
	Lyrics        LyricsFetcher
	ReloadConfig  func() (*config.Config, error)
}

// SocketPath returns the daemon's control socket path: <dir>/socket, with
// dir defaulting to a per-user wavesd directory under the system temp dir.
func SocketPath(dir string) string {
	return filepath.Join(SocketDir(dir), "socket")
}

// SocketDir resolves the socket directory, applying the default when dir is
// empty.
func SocketDir(dir string) string {
	if dir == "" {
		return filepath.Join(os.TempDir(), "wavesd")
	}
	return dir
}

type request struct {
	cmd   PlayerCmd
	reply chan Reply // nil for engine events
}

// Daemon owns the IPC listener, the internal event channel, and the single
// dispatch goroutine that is the only mutator of playback/playlist state.
type Daemon struct {
	player *generalplayer.GeneralPlayer
	opts   Options

	events   *eventQueue
	requests chan request
	quit     chan struct{}
	done     chan struct{}

	ln net.Listener
}

// New wires a Daemon around player. Run must be called for anything to
// happen.
func New(player *generalplayer.GeneralPlayer, opts Options) *Daemon {
	return &Daemon{
		player:   player,
		opts:     opts,
		events:   newEventQueue(),
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run binds the control socket and dispatches until a Quit command arrives.
// A bind failure is fatal and returned to the caller; everything after that
// degrades per-connection.
func (d *Daemon) Run() error {
	socketDir := SocketDir(d.opts.Config.SocketDir)
	socketPath := filepath.Join(socketDir, "socket")

	if err := os.MkdirAll(socketDir, 0o700); err != nil {
		return errors.Wrap(err, "create socket dir")
	}
	// A stale socket from a previous run would fail the bind; the daemon
	// intentionally does not unlink on exit, so restarts always rebind.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove stale socket")
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return errors.Wrap(err, "bind control socket")
	}
	d.ln = ln
	log.Info("listening", "socket", socketPath)

	d.player.SetEosSink(func() {
		d.events.Push(PlayerCmd{Kind: CmdEos})
	})
	d.player.Backend().SetOnProgress(func(position time.Duration) {
		d.events.Push(PlayerCmd{Kind: CmdProgress, Position: position})
	})

	go d.acceptLoop()
	go d.eventLoop()
	go d.tickLoop()

	d.dispatchLoop()

	close(d.done)
	d.events.Close()
	_ = ln.Close()
	d.savePlaylist()
	return nil
}

// Quit asks the dispatch loop to exit; used by signal handlers. Equivalent
// to receiving a Quit command.
func (d *Daemon) Quit() {
	select {
	case <-d.quit:
	default:
		close(d.quit)
	}
}

func (d *Daemon) acceptLoop() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			select {
			case <-d.done:
				return
			default:
			}
			log.Warn("accept", "error", err)
			return
		}
		go d.serveConn(conn)
	}
}

// serveConn reads one request to end-of-stream, dispatches it, writes any
// reply, and half-closes. A decode failure closes the connection without a
// reply; the server continues.
func (d *Daemon) serveConn(conn net.Conn) {
	defer conn.Close()

	data, err := ReadMessage(conn)
	if err != nil {
		log.Warn("read request", "error", err)
		return
	}
	cmd, err := DecodeCmd(data)
	if err != nil {
		log.Warn("decode request", "error", err, "bytes", len(data))
		return
	}

	replyCh := make(chan Reply, 1)
	select {
	case d.requests <- request{cmd: cmd, reply: replyCh}:
	case <-d.done:
		return
	}

	var reply Reply
	select {
	case reply = <-replyCh:
	case <-d.done:
		return
	}

	if reply.Kind == ReplyNone {
		return
	}
	if _, err := conn.Write(EncodeReply(reply)); err != nil {
		log.Warn("write reply", "error", err)
		return
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}
}

// eventLoop feeds engine events into the same dispatch queue as IPC
// requests.
func (d *Daemon) eventLoop() {
	for {
		cmd, ok := d.events.Pop()
		if !ok {
			return
		}
		select {
		case d.requests <- request{cmd: cmd}:
		case <-d.done:
			return
		}
	}
}

func (d *Daemon) tickLoop() {
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.events.Push(PlayerCmd{Kind: CmdTick})
		case <-d.done:
			return
		case <-d.quit:
			return
		}
	}
}

func (d *Daemon) dispatchLoop() {
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.requests:
			reply := d.dispatch(req.cmd)
			if req.reply != nil {
				req.reply <- reply
			}
		}
	}
}

func (d *Daemon) dispatch(cmd PlayerCmd) Reply {
	if cmd.Kind != CmdProgress && cmd.Kind != CmdTick {
		log.Debug("dispatch", "cmd", cmd.Kind.String(), "mutating", cmd.IsMutating())
	}
	if cmd.IsMutating() {
		return d.dispatchMutating(cmd)
	}
	return d.dispatchQuery(cmd)
}

func (d *Daemon) dispatchMutating(cmd PlayerCmd) Reply {
	g := d.player
	backend := g.Backend()
	pl := g.Playlist()

	switch cmd.Kind {
	case CmdPlaySelected:
		if err := g.PlaySelected(cmd.Index); err != nil {
			log.Warn("play selected", "error", err)
		}
	case CmdSkipNext:
		g.SaveLastPosition()
		if err := g.Next(); err != nil {
			log.Warn("skip next", "error", err)
		}
	case CmdSkipPrevious:
		g.SaveLastPosition()
		if err := g.Previous(); err != nil {
			log.Warn("skip previous", "error", err)
		}
	case CmdTogglePause:
		g.TogglePause()
	case CmdVolumeUp:
		return intReply(backend.VolumeUp())
	case CmdVolumeDown:
		return intReply(backend.VolumeDown())
	case CmdSpeedUp:
		return intReply(backend.SpeedUp())
	case CmdSpeedDown:
		return intReply(backend.SpeedDown())
	case CmdSeekForward:
		d.seekRelative(true)
	case CmdSeekBackward:
		d.seekRelative(false)
	case CmdCycleLoop:
		return Reply{Kind: ReplyLoopMode, Int: int64(pl.CycleLoopMode())}
	case CmdToggleGapless:
		return boolReply(backend.ToggleGapless())
	case CmdReloadPlaylist:
		d.reloadPlaylist()
	case CmdReloadConfig:
		d.reloadConfig()
	case CmdAddTrack:
		d.addTrack(cmd.URI)
	case CmdRemoveTrack:
		if !pl.Remove(cmd.Index) {
			log.Warn("remove track: index out of range", "index", cmd.Index)
		}
	case CmdShuffle:
		pl.Shuffle()
	case CmdSavePlaylist:
		d.savePlaylist()
	case CmdQuit:
		d.savePlaylist()
		g.SaveLastPosition()
		d.Quit()
	case CmdEos:
		d.handleEos()
	case CmdAboutToFinish:
		if err := g.HandleAboutToFinish(); err != nil && !errors.Is(err, playlist.ErrNoNextTrack) {
			log.Warn("enqueue next", "error", err)
		}
	case CmdDurationNext:
		g.SetNextDuration(cmd.Duration)
	case CmdTick:
		d.handleTick()
	}
	return Reply{}
}

func (d *Daemon) dispatchQuery(cmd PlayerCmd) Reply {
	g := d.player

	switch cmd.Kind {
	case CmdGetProgress:
		pos, dur := g.Backend().GetProgress()
		return Reply{
			Kind:          ReplyProgress,
			Position:      pos,
			TrackDuration: dur,
			TrackIndex:    g.Playlist().CurrentIndex(),
		}
	case CmdFetchStatus:
		return Reply{Kind: ReplyStatus, Int: int64(g.Playlist().Status())}
	case CmdProcessID:
		return intReply(os.Getpid())
	case CmdFetchLyrics:
		return textReply(d.fetchLyrics())
	case CmdProgress:
		d.handleProgress(cmd.Position)
	}
	return Reply{}
}

func (d *Daemon) seekRelative(forward bool) {
	if err := d.player.SeekRelative(forward); err != nil {
		// Out-of-range targets are refused with position unchanged.
		log.Debug("seek", "forward", forward, "error", err)
	}
}

// handleEos applies the end-of-stream row: stop when the playlist is
// empty, otherwise advance and start playing, skipping over tracks the
// backend cannot open.
func (d *Daemon) handleEos() {
	if d.player.Playlist().Len() == 0 {
		_ = d.player.Stop()
		return
	}
	d.startPlay()
}

// startPlay drives StartPlay, applying the decoder-error policy: report,
// advance to the next track, never crash. Attempts are bounded by the
// playlist length so a playlist of entirely unreadable files converges.
func (d *Daemon) startPlay() {
	maxAttempts := d.player.Playlist().Len() + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := d.player.StartPlay()
		if err == nil {
			return
		}
		if errors.Is(err, generalplayer.ErrNoCurrentTrack) || errors.Is(err, playlist.ErrNoNextTrack) {
			return
		}
		log.Error("start play", "error", err)
	}
	_ = d.player.Stop()
}

// handleProgress derives AboutToFinish from the telemetry stream: inside
// the final stretch of the current track, with gapless enabled and nothing
// armed yet, raise it so the successor gets pre-queued.
func (d *Daemon) handleProgress(position time.Duration) {
	_, duration := d.player.Backend().GetProgress()
	if !d.player.Backend().Gapless() || duration <= 0 {
		return
	}
	if d.player.Playlist().HasNextTrack() {
		return
	}
	if remaining := duration - position; remaining > 0 && remaining <= aboutToFinishLead {
		d.events.Push(PlayerCmd{Kind: CmdAboutToFinish})
	}
}

// handleTick refreshes presence and auto-starts a stopped, non-empty
// playlist.
func (d *Daemon) handleTick() {
	d.player.RefreshPresence()
	pl := d.player.Playlist()
	if pl.Status() == playlist.Stopped && pl.Len() > 0 {
		d.startPlay()
	}
}

func (d *Daemon) reloadPlaylist() {
	if d.opts.PlaylistPath == "" {
		return
	}
	err := d.player.Playlist().ReloadTracks(d.opts.PlaylistPath, d.opts.Probe, d.opts.LookupPodcast)
	if err != nil {
		// Missing or corrupt files load as empty rather than failing.
		log.Warn("reload playlist", "error", err)
	}
	d.player.Playlist().RemoveDeletedItems(func(uri string) bool {
		_, statErr := os.Stat(uri)
		return statErr == nil
	})
}

func (d *Daemon) reloadConfig() {
	if d.opts.ReloadConfig == nil {
		return
	}
	cfg, err := d.opts.ReloadConfig()
	if err != nil {
		log.Warn("reload config", "error", err)
		return
	}
	d.opts.Config = cfg
	d.ApplyConfig(cfg)
}

// ApplyConfig pushes the player-facing configuration keys into the running
// player. Called once at startup and again on every ReloadConfig.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	d.player.SetSeekStep(cfg.SeekStep())
	d.player.SetSavePolicy(cfg.PositionPolicy())
	d.player.Backend().SetGapless(cfg.PlayerGapless)
	d.player.Playlist().SetLoopMode(cfg.LoopMode())
	d.player.Playlist().SetAddFront(cfg.AddPlaylistFront)
}

func (d *Daemon) addTrack(uri string) {
	if uri == "" {
		return
	}
	var track playlist.Track
	var ok bool
	if len(uri) >= 4 && uri[:4] == "http" {
		if d.opts.LookupPodcast != nil {
			track, ok = d.opts.LookupPodcast(uri)
		}
	} else if d.opts.Probe != nil {
		t, err := d.opts.Probe(uri)
		if err != nil {
			log.Warn("add track", "uri", uri, "error", err)
			return
		}
		track, ok = t, true
	}
	if !ok {
		log.Warn("add track: unresolvable", "uri", uri)
		return
	}
	d.player.Playlist().Add(track)
}

func (d *Daemon) savePlaylist() {
	if d.opts.PlaylistPath == "" {
		return
	}
	if err := d.player.Playlist().Save(d.opts.PlaylistPath); err != nil {
		log.Warn("save playlist", "error", err)
	}
}

func (d *Daemon) fetchLyrics() string {
	if d.opts.Lyrics == nil {
		return ""
	}
	current := d.player.Playlist().Current()
	if current == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), lyricsTimeout)
	defer cancel()
	text, err := d.opts.Lyrics.Fetch(ctx, current.Artist, current.Title, current.Duration)
	if err != nil {
		log.Debug("fetch lyrics", "error", err)
		return ""
	}
	return text
}

// wavesctl is a one-shot control client for wavesd: it dials the daemon's
// socket, sends a single command, and prints the reply. It exists so the
// IPC surface is exercisable without a full UI.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/llehouerou/wavesd/internal/config"
	"github.com/llehouerou/wavesd/internal/daemon"
	"github.com/llehouerou/wavesd/internal/playlist"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, err := parseCommand(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "wavesctl: %v\n", err)
		usage()
		os.Exit(2)
	}

	socketDir := ""
	if cfg, cfgErr := config.Load(); cfgErr == nil {
		socketDir = cfg.SocketDir
	}

	reply, err := daemon.Send(daemon.SocketPath(socketDir), cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wavesctl: %v\n", err)
		os.Exit(1)
	}
	printReply(cmd, reply)
}

func parseCommand(name string, args []string) (daemon.PlayerCmd, error) {
	switch name {
	case "toggle-pause", "pause":
		return daemon.PlayerCmd{Kind: daemon.CmdTogglePause}, nil
	case "play":
		index := -1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return daemon.PlayerCmd{}, fmt.Errorf("play: bad index %q", args[0])
			}
			index = n
		}
		return daemon.PlayerCmd{Kind: daemon.CmdPlaySelected, Index: index}, nil
	case "next":
		return daemon.PlayerCmd{Kind: daemon.CmdSkipNext}, nil
	case "previous", "prev":
		return daemon.PlayerCmd{Kind: daemon.CmdSkipPrevious}, nil
	case "volume-up":
		return daemon.PlayerCmd{Kind: daemon.CmdVolumeUp}, nil
	case "volume-down":
		return daemon.PlayerCmd{Kind: daemon.CmdVolumeDown}, nil
	case "speed-up":
		return daemon.PlayerCmd{Kind: daemon.CmdSpeedUp}, nil
	case "speed-down":
		return daemon.PlayerCmd{Kind: daemon.CmdSpeedDown}, nil
	case "seek-forward":
		return daemon.PlayerCmd{Kind: daemon.CmdSeekForward}, nil
	case "seek-backward":
		return daemon.PlayerCmd{Kind: daemon.CmdSeekBackward}, nil
	case "progress":
		return daemon.PlayerCmd{Kind: daemon.CmdGetProgress}, nil
	case "status":
		return daemon.PlayerCmd{Kind: daemon.CmdFetchStatus}, nil
	case "pid":
		return daemon.PlayerCmd{Kind: daemon.CmdProcessID}, nil
	case "cycle-loop":
		return daemon.PlayerCmd{Kind: daemon.CmdCycleLoop}, nil
	case "toggle-gapless":
		return daemon.PlayerCmd{Kind: daemon.CmdToggleGapless}, nil
	case "reload-playlist":
		return daemon.PlayerCmd{Kind: daemon.CmdReloadPlaylist}, nil
	case "reload-config":
		return daemon.PlayerCmd{Kind: daemon.CmdReloadConfig}, nil
	case "add":
		if len(args) != 1 {
			return daemon.PlayerCmd{}, fmt.Errorf("add: exactly one path or URL required")
		}
		return daemon.PlayerCmd{Kind: daemon.CmdAddTrack, URI: args[0]}, nil
	case "remove":
		if len(args) != 1 {
			return daemon.PlayerCmd{}, fmt.Errorf("remove: exactly one index required")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return daemon.PlayerCmd{}, fmt.Errorf("remove: bad index %q", args[0])
		}
		return daemon.PlayerCmd{Kind: daemon.CmdRemoveTrack, Index: n}, nil
	case "shuffle":
		return daemon.PlayerCmd{Kind: daemon.CmdShuffle}, nil
	case "save-playlist":
		return daemon.PlayerCmd{Kind: daemon.CmdSavePlaylist}, nil
	case "lyrics":
		return daemon.PlayerCmd{Kind: daemon.CmdFetchLyrics}, nil
	case "quit":
		return daemon.PlayerCmd{Kind: daemon.CmdQuit}, nil
	default:
		return daemon.PlayerCmd{}, fmt.Errorf("unknown command %q", name)
	}
}

func printReply(cmd daemon.PlayerCmd, reply daemon.Reply) {
	switch reply.Kind {
	case daemon.ReplyNone:
	case daemon.ReplyInt:
		fmt.Println(reply.Int)
	case daemon.ReplyBool:
		fmt.Println(reply.Bool)
	case daemon.ReplyText:
		fmt.Print(reply.Text)
	case daemon.ReplyStatus:
		fmt.Println(playlist.Status(reply.Int).String())
	case daemon.ReplyLoopMode:
		fmt.Println(playlist.LoopMode(reply.Int).String())
	case daemon.ReplyProgress:
		fmt.Printf("%s / %s (track %d)\n",
			formatDuration(reply.Position),
			formatDuration(reply.TrackDuration),
			reply.TrackIndex)
	default:
		fmt.Fprintf(os.Stderr, "wavesctl: unexpected reply to %s\n", cmd.Kind)
	}
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wavesctl <command> [args]

commands:
  play [index]      play the selected (or current) track
  next | previous   change track
  toggle-pause      pause/resume
  seek-forward | seek-backward
  volume-up | volume-down
  speed-up | speed-down
  progress | status | pid | lyrics
  cycle-loop | toggle-gapless | shuffle
  add <path|url> | remove <index>
  reload-playlist | reload-config | save-playlist
  quit`)
}

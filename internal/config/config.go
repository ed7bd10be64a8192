package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

type Config struct {
	// SocketDir overrides the directory the daemon binds its control
	// socket in. Empty means the default temp-dir location.
	SocketDir string `koanf:"socket_dir"`

	LogLevel string `koanf:"log_level"` // "debug", "info", "warn", "error"

	PlayerGapless                    bool   `koanf:"player_gapless"`
	PlayerUseMpris                   bool   `koanf:"player_use_mpris"`
	PlayerUseDiscord                 bool   `koanf:"player_use_discord"`
	PlayerSeekStep                   string `koanf:"player_seek_step"`                     // "short", "long", "auto"
	PlayerRememberLastPlayedPosition string `koanf:"player_remember_last_played_position"` // "yes", "no", "auto"
	PlayerLoopMode                   string `koanf:"player_loop_mode"`                     // "single", "playlist-cycle", "random"
	PlayerVolume                     int    `koanf:"player_volume"`                        // 0-100
	PlayerSpeed                      int    `koanf:"player_speed"`                         // percent, 100 = normal
	AddPlaylistFront                 bool   `koanf:"add_playlist_front"`

	// PodcastDir is where downloaded episodes are cached. Empty means
	// <config dir>/podcasts.
	PodcastDir string `koanf:"podcast_dir"`

	// Last.fm now-playing/scrobble bridge (enabled when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Desktop notifications
	Notifications NotificationsConfig `koanf:"notifications"`
}

// LastfmConfig holds the Last.fm presence-bridge credentials. SessionKey
// comes from a one-time out-of-band authentication.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled      *bool `koanf:"enabled"`        // Master toggle (default: false)
	ShowAlbumArt *bool `koanf:"show_album_art"` // Include album art (default: true)
	Timeout      int32 `koanf:"timeout"`        // ms, 0 = don't expire (default: 5000)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaultConfig()

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.SocketDir != "" {
		cfg.SocketDir = expandPath(cfg.SocketDir)
	}
	if cfg.PodcastDir != "" {
		cfg.PodcastDir = expandPath(cfg.PodcastDir)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		LogLevel:                         "info",
		PlayerGapless:                    true,
		PlayerSeekStep:                   "auto",
		PlayerRememberLastPlayedPosition: "auto",
		PlayerLoopMode:                   "playlist-cycle",
		PlayerVolume:                     70,
		PlayerSpeed:                      100,
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/waves/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "waves", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// Dir returns the directory persisted daemon state (playlist.log) lives in.
func Dir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "waves")
	}
	return "."
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasLastfmConfig returns true if the Last.fm bridge is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// SeekStep maps the player_seek_step key onto the player's seek policy;
// unrecognized values fall back to auto.
func (c *Config) SeekStep() generalplayer.SeekStep {
	switch strings.ToLower(c.PlayerSeekStep) {
	case "short":
		return generalplayer.SeekShort
	case "long":
		return generalplayer.SeekLong
	default:
		return generalplayer.SeekAuto
	}
}

// PositionPolicy maps player_remember_last_played_position onto the
// player's save/restore policy; unrecognized values fall back to auto.
func (c *Config) PositionPolicy() generalplayer.PositionPolicy {
	switch strings.ToLower(c.PlayerRememberLastPlayedPosition) {
	case "yes", "true":
		return generalplayer.PositionYes
	case "no", "false":
		return generalplayer.PositionNo
	default:
		return generalplayer.PositionAuto
	}
}

// LoopMode maps player_loop_mode onto the playlist's loop mode;
// unrecognized values fall back to playlist-cycle.
func (c *Config) LoopMode() playlist.LoopMode {
	switch strings.ToLower(c.PlayerLoopMode) {
	case "single":
		return playlist.Single
	case "random":
		return playlist.Random
	default:
		return playlist.PlaylistCycle
	}
}

// GetNotificationsConfig returns the notification configuration with
// defaults applied.
func (c *Config) GetNotificationsConfig() NotificationsConfig {
	cfg := c.Notifications

	// Notifications are opt-in (disabled by default)
	if cfg.Enabled == nil {
		f := false
		cfg.Enabled = &f
	}
	if cfg.ShowAlbumArt == nil {
		t := true
		cfg.ShowAlbumArt = &t
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5000
	}

	return cfg
}

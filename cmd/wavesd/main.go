// wavesd is the headless playback daemon: it owns the playlist and the
// audio backend, and is controlled over a local socket (see cmd/wavesctl
// for the matching client).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/backendplayer"
	"github.com/llehouerou/wavesd/internal/config"
	"github.com/llehouerou/wavesd/internal/daemon"
	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/lastfm"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/lyrics"
	"github.com/llehouerou/wavesd/internal/notify"
	"github.com/llehouerou/wavesd/internal/playlist"
	"github.com/llehouerou/wavesd/internal/podcast"
	"github.com/llehouerou/wavesd/internal/positionstore"
	"github.com/llehouerou/wavesd/internal/presence"
	"github.com/llehouerou/wavesd/internal/trackmeta"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wavesd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(nil, cfg.LogLevel)

	podcastDir := cfg.PodcastDir
	if podcastDir == "" {
		podcastDir = filepath.Join(config.Dir(), "podcasts")
	}
	podcasts, err := podcast.NewManager(podcastDir)
	if err != nil {
		return err
	}

	playlistPath := filepath.Join(config.Dir(), "playlist.log")
	pl, err := playlist.Load(playlistPath, trackmeta.Probe, podcasts.Lookup)
	if err != nil {
		// A missing or corrupt playlist file starts the daemon empty.
		log.Warn("load playlist", "path", playlistPath, "error", err)
		pl = playlist.NewPlaylist()
	}

	backend := backendplayer.New()
	backend.SetVolume(cfg.PlayerVolume)
	backend.SetSpeed(cfg.PlayerSpeed)
	defer backend.Close()

	musicPositions, podcastPositions := openPositionStores()
	if musicPositions != nil {
		defer musicPositions.Close()
	}
	if podcastPositions != nil {
		defer podcastPositions.Close()
	}

	bridges := presence.NewMulti()
	player := generalplayer.New(
		pl, backend, bridges,
		positionStoreOrNil(musicPositions), positionStoreOrNil(podcastPositions),
		cfg.SeekStep(), cfg.PositionPolicy(),
	)

	wireBridges(bridges, player, cfg)

	d := daemon.New(player, daemon.Options{
		Config:        cfg,
		PlaylistPath:  playlistPath,
		Probe:         trackmeta.Probe,
		LookupPodcast: podcasts.Lookup,
		Lyrics:        lyricsFetcher{src: lyrics.NewSource()},
		ReloadConfig:  config.Load,
	})
	d.ApplyConfig(cfg)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		log.Info("shutting down", "signal", s)
		d.Quit()
	}()

	return d.Run()
}

// wireBridges attaches the configured presence surfaces. The MPRIS adapter
// needs the constructed player, which is why this happens after
// generalplayer.New rather than before.
func wireBridges(bridges *presence.Multi, player *generalplayer.GeneralPlayer, cfg *config.Config) {
	if cfg.PlayerUseMpris {
		adapter, err := presence.NewMPRISAdapter(player)
		if err != nil {
			log.Warn("mpris unavailable", "error", err)
		} else {
			bridges.Add(adapter)
		}
	}

	// player_use_discord drives the Last.fm now-playing bridge, the
	// project's stand-in for a Discord rich-presence client.
	if cfg.PlayerUseDiscord && cfg.HasLastfmConfig() {
		client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
		if cfg.Lastfm.SessionKey != "" {
			client.SetSessionKey(cfg.Lastfm.SessionKey)
		}
		bridges.Add(presence.NewLastfmPresence(client))
	}

	notifCfg := cfg.GetNotificationsConfig()
	if *notifCfg.Enabled {
		notifier, err := notify.New()
		if err != nil {
			log.Warn("notifications unavailable", "error", err)
		} else {
			bridges.Add(presence.NewNotifyPresence(notifier, *notifCfg.ShowAlbumArt, notifCfg.Timeout))
		}
	}
}

// openPositionStores opens both last-position databases, degrading to nil
// (save/restore skipped) when one is unavailable.
func openPositionStores() (music, podcasts *positionstore.Store) {
	var err error
	if music, err = positionstore.OpenMusicStore(); err != nil {
		log.Warn("music position store unavailable", "error", err)
		music = nil
	}
	if podcasts, err = positionstore.OpenPodcastStore(); err != nil {
		log.Warn("podcast position store unavailable", "error", err)
		podcasts = nil
	}
	return music, podcasts
}

// positionStoreOrNil avoids handing generalplayer a typed-nil interface.
func positionStoreOrNil(s *positionstore.Store) generalplayer.PositionStore {
	if s == nil {
		return nil
	}
	return s
}

// lyricsFetcher adapts the lyrics source to the daemon's FetchLyrics query.
type lyricsFetcher struct {
	src *lyrics.Source
}

func (l lyricsFetcher) Fetch(ctx context.Context, artist, title string, duration time.Duration) (string, error) {
	return l.src.FetchPlain(ctx, artist, title, duration)
}

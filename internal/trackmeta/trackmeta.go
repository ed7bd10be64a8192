// Package trackmeta materializes playlist Tracks from local audio files:
// tag metadata plus decoded duration. It is the daemon's ProbeFunc, used
// when loading the persisted playlist and when tracks are added over IPC —
// and, because ReloadPlaylist re-probes every surviving file, it is also
// how an external tag edit becomes visible to a running daemon.
package trackmeta

import (
	"github.com/llehouerou/wavesd/internal/decode"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// Probe reads path's tags and duration into a Music track.
func Probe(path string) (playlist.Track, error) {
	info, err := decode.ExtractFullMetadata(path)
	if err != nil {
		return playlist.Track{}, err
	}
	return playlist.Track{
		URI:         path,
		Kind:        playlist.Music,
		Title:       info.Title,
		Artist:      info.Artist,
		Album:       info.Album,
		TrackNumber: info.Track,
		Duration:    info.Duration,
	}, nil
}

// Refresh re-probes t's file and returns the track with updated tag fields,
// or t unchanged if the file can no longer be read. Kind, URI and cached
// path are preserved either way.
func Refresh(t playlist.Track) playlist.Track {
	probed, err := Probe(t.ResolvedPath())
	if err != nil {
		return t
	}
	t.Title = probed.Title
	t.Artist = probed.Artist
	t.Album = probed.Album
	t.TrackNumber = probed.TrackNumber
	t.Duration = probed.Duration
	return t
}

package playlist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProbeFunc materializes a Track (with duration) from a local file path.
type ProbeFunc func(path string) (Track, error)

// PodcastLookupFunc resolves a previously-added episode URL back into a
// Track; ok is false if the URL isn't a known episode.
type PodcastLookupFunc func(url string) (Track, bool)

// Save writes an index header line (the current index, or blank if none),
// followed by one track URI per line, per spec.md §4.5.
func (p *Playlist) Save(path string) error {
	p.mu.Lock()
	tracks := make([]Track, len(p.tracks))
	copy(tracks, p.tracks)
	idx := p.currentIndex
	p.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if idx >= 0 {
		fmt.Fprintln(w, idx)
	} else {
		fmt.Fprintln(w)
	}
	for _, t := range tracks {
		fmt.Fprintln(w, t.URI)
	}
	return w.Flush()
}

// Load reads a playlist previously written by Save. Local-file URIs are
// probed for duration via probe; URIs beginning with "http" are resolved
// via lookupPodcast. Lines that don't resolve (probe error, unknown
// episode, or outright garbage) are skipped.
func Load(path string, probe ProbeFunc, lookupPodcast PodcastLookupFunc) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	headerLine := strings.TrimSpace(scanner.Text())
	savedIndex := -1
	if headerLine != "" {
		if n, err := strconv.Atoi(headerLine); err == nil {
			savedIndex = n
		}
	}

	pl := NewPlaylist()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var track Track
		var ok bool
		if strings.HasPrefix(line, "http") {
			track, ok = lookupPodcast(line)
		} else {
			t, err := probe(line)
			ok = err == nil
			track = t
		}
		if !ok {
			continue
		}
		pl.tracks = append(pl.tracks, track)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if savedIndex >= 0 && savedIndex < len(pl.tracks) {
		pl.currentIndex = savedIndex
	}
	return pl, nil
}

// ReloadTracks re-reads the persisted playlist file into this playlist in
// place, preserving the Playlist's identity (status, loop mode, add-front
// flag). The current track is re-derived by URI where possible, falling
// back to the file's saved index. A missing or unreadable file empties the
// track list rather than failing.
func (p *Playlist) ReloadTracks(path string, probe ProbeFunc, lookupPodcast PodcastLookupFunc) error {
	loaded, err := Load(path, probe, lookupPodcast)
	if err != nil {
		loaded = NewPlaylist()
	}

	p.mu.Lock()
	var currentURI string
	if p.currentIndex >= 0 && p.currentIndex < len(p.tracks) {
		currentURI = p.tracks[p.currentIndex].URI
	}

	p.tracks = loaded.tracks
	p.history = nil
	p.nextArmed = false
	p.currentIndex = loaded.currentIndex

	if currentURI != "" {
		p.relocateCurrentLocked(currentURI)
		if p.currentIndex < 0 {
			p.currentIndex = loaded.currentIndex
		}
	}
	p.mu.Unlock()
	return err
}

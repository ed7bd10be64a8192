// Package podcast is the daemon-side half of podcast support: a registry of
// known episodes (fed by the out-of-process feed fetcher; this package does
// no RSS parsing) and a downloader that caches an episode to local disk so
// the decoder can seek in it. The registry is persisted as a JSON file so
// playlist URLs still resolve after a restart.
package podcast

import (
	"context"
	"crypto/sha1" //nolint:gosec // cache key, not a security use
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/llehouerou/wavesd/internal/playlist"
)

// ErrUnknownEpisode is returned by Fetch for a URL the registry has never
// seen.
var ErrUnknownEpisode = errors.New("podcast: unknown episode")

const registryFileName = "episodes.json"

// Episode is a pre-resolved episode as handed over by the feed fetcher.
type Episode struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Author   string        `json:"author,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	// LocalFile is set once the episode has been downloaded.
	LocalFile string `json:"local_file,omitempty"`
}

// Manager holds the episode registry and the download cache directory.
type Manager struct {
	mu       sync.Mutex
	episodes map[string]Episode

	cacheDir     string
	registryPath string
	client       *http.Client
}

// NewManager loads (or initializes) the registry under dir, which also
// receives downloaded episode files.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	m := &Manager{
		episodes:     make(map[string]Episode),
		cacheDir:     dir,
		registryPath: filepath.Join(dir, registryFileName),
		client:       &http.Client{Timeout: 5 * time.Minute},
	}
	if err := m.loadRegistry(); err != nil {
		// A corrupt registry degrades to empty rather than failing startup.
		m.episodes = make(map[string]Episode)
	}
	return m, nil
}

// Add records (or updates) an episode and persists the registry.
func (m *Manager) Add(ep Episode) error {
	if ep.URL == "" {
		return errors.New("podcast: episode has no URL")
	}
	m.mu.Lock()
	if prev, ok := m.episodes[ep.URL]; ok && ep.LocalFile == "" {
		ep.LocalFile = prev.LocalFile
	}
	m.episodes[ep.URL] = ep
	m.mu.Unlock()
	return m.saveRegistry()
}

// Lookup materializes a playlist Track from a known episode URL; ok is
// false for URLs the registry has never seen. A recorded local file that
// has since vanished from disk is ignored rather than handed to the
// decoder.
func (m *Manager) Lookup(url string) (playlist.Track, bool) {
	m.mu.Lock()
	ep, ok := m.episodes[url]
	m.mu.Unlock()
	if !ok {
		return playlist.Track{}, false
	}

	track := playlist.Track{
		URI:      ep.URL,
		Kind:     playlist.Podcast,
		Title:    ep.Title,
		Artist:   ep.Author,
		Duration: ep.Duration,
	}
	if ep.LocalFile != "" {
		if _, err := os.Stat(ep.LocalFile); err == nil {
			track.CachedPath = ep.LocalFile
		}
	}
	return track, true
}

// Fetch downloads the episode at url into the cache directory, records the
// local path in the registry, and returns it. Already-cached episodes are
// returned without re-downloading.
func (m *Manager) Fetch(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	ep, ok := m.episodes[url]
	m.mu.Unlock()
	if !ok {
		return "", ErrUnknownEpisode
	}
	if ep.LocalFile != "" {
		if _, err := os.Stat(ep.LocalFile); err == nil {
			return ep.LocalFile, nil
		}
	}

	dest := m.cachedPathFor(url)
	if err := m.download(ctx, url, dest); err != nil {
		return "", err
	}

	m.mu.Lock()
	ep = m.episodes[url]
	ep.LocalFile = dest
	m.episodes[url] = ep
	m.mu.Unlock()
	if err := m.saveRegistry(); err != nil {
		return dest, err
	}
	return dest, nil
}

// cachedPathFor derives a stable on-disk name from the episode URL: its
// hash plus whatever extension the URL carries (the decoder dispatches on
// extension).
func (m *Manager) cachedPathFor(url string) string {
	h := sha1.Sum([]byte(url)) //nolint:gosec
	ext := filepath.Ext(url)
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".mp3"
	}
	return filepath.Join(m.cacheDir, hex.EncodeToString(h[:])+ext)
}

func (m *Manager) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("podcast: fetch %s: %s", url, resp.Status)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func (m *Manager) loadRegistry() error {
	data, err := os.ReadFile(m.registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var eps []Episode
	if err := json.Unmarshal(data, &eps); err != nil {
		return err
	}
	m.mu.Lock()
	for _, ep := range eps {
		m.episodes[ep.URL] = ep
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) saveRegistry() error {
	m.mu.Lock()
	eps := make([]Episode, 0, len(m.episodes))
	for _, ep := range m.episodes {
		eps = append(eps, ep)
	}
	m.mu.Unlock()

	data, err := json.MarshalIndent(eps, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.registryPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.registryPath)
}

package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// ExportM3U writes an #EXTM3U playlist file: the header line, then each
// track's path relative to path's parent directory (spec.md §4.5).
func (p *Playlist) ExportM3U(path string) error {
	p.mu.Lock()
	tracks := make([]Track, len(p.tracks))
	copy(tracks, p.tracks)
	p.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	base := filepath.Dir(path)
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#EXTM3U")
	for _, t := range tracks {
		rel, err := filepath.Rel(base, t.ResolvedPath())
		if err != nil {
			rel = t.ResolvedPath()
		}
		fmt.Fprintln(w, rel)
	}
	return w.Flush()
}

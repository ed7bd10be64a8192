package lyrics

import (
	"context"
	"strings"
	"time"
)

// FetchPlain is the daemon-facing lookup: same source priority as Fetch,
// flattened to the plain text the IPC FetchLyrics reply carries (one lyric
// line per text line, timestamps dropped).
func (s *Source) FetchPlain(ctx context.Context, artist, title string, duration time.Duration) (string, error) {
	res := s.Fetch(ctx, TrackInfo{Artist: artist, Title: title, Duration: duration})
	if res.Err != nil {
		return "", res.Err
	}
	if res.Lyrics == nil {
		return "", nil
	}

	var b strings.Builder
	for _, line := range res.Lyrics.Lines {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

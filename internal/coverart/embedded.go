package coverart

import (
	"os"

	"github.com/dhowden/tag"
)

// extractEmbeddedArt reads embedded cover art from an audio file's tag
// metadata. Returns nil data (no error) when the file carries no picture.
func extractEmbeddedArt(path string) (data []byte, mimeType string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, "", err
	}

	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}

	return pic.Data, pic.MIMEType, nil
}

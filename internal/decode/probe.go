package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

// Supported file extensions, lower-cased.
const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOPUS = ".opus"
	extOGG  = ".ogg"
	extOGA  = ".oga"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
)

// TrackInfo carries the metadata the daemon needs to populate a playlist
// entry and to answer MPRIS/presence metadata queries. It is filled in by
// ReadTrackInfo and its format-specific extended-tag readers.
type TrackInfo struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Year        int
	Track       int
	TotalTracks int
	Disc        int
	TotalDiscs  int
	Genre       string
	Duration    time.Duration

	// Extended tags, populated only where the format and the file carry them.
	Date             string
	OriginalDate     string
	OriginalYear     string
	Label            string
	CatalogNumber    string
	Barcode          string
	ISRC             string
	Media            string
	Country          string
	Script           string
	ReleaseStatus    string
	ReleaseType      string
	ArtistSortName   string
	MBArtistID       string
	MBReleaseID      string
	MBReleaseGroupID string
	MBRecordingID    string
	MBTrackID        string
}

// Decode opens path and returns a seekable PCM stream plus its format,
// dispatching on file extension to the matching container/codec decoder.
// The caller owns the returned stream and must Close it.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case extMP3:
		s, format, err := decodeGoMP3(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, err
		}
		return s, format, nil
	case extFLAC:
		s, format, err := flac.Decode(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, err
		}
		return s, format, nil
	case extOPUS:
		s, format, err := decodeOpus(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, err
		}
		return s, format, nil
	case extOGG, extOGA:
		s, format, err := decodeOgg(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, err
		}
		return s, format, nil
	case extM4A, extMP4:
		s, format, _, err := decodeM4A(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, err
		}
		return s, format, nil
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode: unsupported file extension %q", ext)
	}
}

var _ io.ReadSeekCloser = (*os.File)(nil)

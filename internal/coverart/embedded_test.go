package coverart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmbeddedArtFromMP3(t *testing.T) {
	dir := t.TempDir()
	mp3Path := filepath.Join(dir, "track.mp3")

	// Minimal MP3 frame header (MPEG1 Layer3, 128kbps, 44100Hz, stereo)
	mp3Frame := make([]byte, 417)
	mp3Frame[0] = 0xff
	mp3Frame[1] = 0xfb
	mp3Frame[2] = 0x90
	require.NoError(t, os.WriteFile(mp3Path, mp3Frame, 0o644))

	artData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	tag, err := id3v2.Open(mp3Path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Picture:     artData,
	})
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())

	data, mimeType, err := extractEmbeddedArt(mp3Path)
	require.NoError(t, err)
	assert.Equal(t, artData, data)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestExtractEmbeddedArtNoPicture(t *testing.T) {
	dir := t.TempDir()
	mp3Path := filepath.Join(dir, "bare.mp3")

	mp3Frame := make([]byte, 417)
	mp3Frame[0] = 0xff
	mp3Frame[1] = 0xfb
	mp3Frame[2] = 0x90
	require.NoError(t, os.WriteFile(mp3Path, mp3Frame, 0o644))

	tag, err := id3v2.Open(mp3Path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.AddTextFrame("TIT2", id3v2.EncodingUTF8, "No Art")
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())

	data, _, err := extractEmbeddedArt(mp3Path)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestExtractEmbeddedArtMissingFile(t *testing.T) {
	_, _, err := extractEmbeddedArt(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}

func TestExtractEmbeddedArtUnreadableFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))

	_, _, err := extractEmbeddedArt(path)
	assert.Error(t, err)
}

package decode

import (
	"errors"
	"testing"
)

func TestVorbisCodec_Init(t *testing.T) {
	tests := []struct {
		name       string
		channels   int
		sampleRate int
	}{
		{"stereo 44100", 2, 44100},
		{"mono 48000", 1, 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet := buildVorbisIdentHeader(tt.channels, tt.sampleRate)
			codec, err := newVorbisCodec(packet)
			if err != nil {
				t.Fatalf("newVorbisCodec failed: %v", err)
			}
			if codec.Channels() != tt.channels {
				t.Errorf("expected %d channels, got %d", tt.channels, codec.Channels())
			}
			if codec.SampleRate() != tt.sampleRate {
				t.Errorf("expected %d sample rate, got %d", tt.sampleRate, codec.SampleRate())
			}
		})
	}
}

func TestVorbisCodec_HeadersIncomplete(t *testing.T) {
	packet := buildVorbisIdentHeader(2, 44100)
	codec, err := newVorbisCodec(packet)
	if err != nil {
		t.Fatalf("newVorbisCodec failed: %v", err)
	}

	// Should fail to decode before headers complete
	pcm := make([]float32, 1024)
	_, err = codec.Decode([]byte{}, pcm)
	if err == nil {
		t.Error("expected error when decoding before headers complete")
	}
}

func TestVorbisCodec_AddHeaderPacket_FirstCallReturnsFalse(t *testing.T) {
	packet := buildVorbisIdentHeader(2, 44100)
	codec, err := newVorbisCodec(packet)
	if err != nil {
		t.Fatalf("newVorbisCodec failed: %v", err)
	}

	// First AddHeaderPacket should return false (need 2 more headers)
	complete, err := codec.AddHeaderPacket(buildVorbisCommentHeader())
	if err != nil {
		t.Fatalf("AddHeaderPacket failed: %v", err)
	}
	if complete {
		t.Error("expected complete=false after first AddHeaderPacket")
	}
}

func TestVorbisCodec_PreSkip(t *testing.T) {
	packet := buildVorbisIdentHeader(2, 44100)
	codec, err := newVorbisCodec(packet)
	if err != nil {
		t.Fatalf("newVorbisCodec failed: %v", err)
	}

	// Vorbis has no pre-skip
	if codec.PreSkip() != 0 {
		t.Errorf("expected pre-skip 0, got %d", codec.PreSkip())
	}
}

func TestVorbisCodec_GranuleToSamples(t *testing.T) {
	packet := buildVorbisIdentHeader(2, 44100)
	codec, err := newVorbisCodec(packet)
	if err != nil {
		t.Fatalf("newVorbisCodec failed: %v", err)
	}

	// Vorbis granule position is a direct sample count
	if codec.GranuleToSamples(1000) != 1000 {
		t.Errorf("expected 1000, got %d", codec.GranuleToSamples(1000))
	}
}

func TestOpusCodec_AddHeaderPacket(t *testing.T) {
	// OpusHead packet (minimal valid header - 19 bytes minimum)
	packet := []byte{
		'O', 'p', 'u', 's', 'H', 'e', 'a', 'd', // magic
		0x01,       // version (must be 1)
		0x02,       // 2 channels
		0x00, 0x00, // pre-skip (little-endian)
		0x80, 0xBB, 0x00, 0x00, // sample rate 48000 (little-endian)
		0x00, 0x00, // output gain
		0x00, // channel mapping family
	}

	codec, err := newOpusCodec(packet)
	if err != nil {
		t.Fatalf("newOpusCodec failed: %v", err)
	}

	// Opus AddHeaderPacket always returns true (single header already parsed)
	complete, err := codec.AddHeaderPacket([]byte{})
	if err != nil {
		t.Fatalf("AddHeaderPacket failed: %v", err)
	}
	if !complete {
		t.Error("expected complete=true for Opus")
	}
}

func buildVorbisIdentHeader(channels, sampleRate int) []byte {
	packet := make([]byte, 30)
	packet[0] = 0x01 // packet type
	copy(packet[1:7], "vorbis")
	// version = 0 (already zero)
	packet[11] = byte(channels)
	// sample rate little-endian
	packet[12] = byte(sampleRate)
	packet[13] = byte(sampleRate >> 8)
	packet[14] = byte(sampleRate >> 16)
	packet[15] = byte(sampleRate >> 24)
	return packet
}

func buildVorbisCommentHeader() []byte {
	// Minimal Vorbis comment header
	packet := make([]byte, 16)
	packet[0] = 0x03 // packet type (comment)
	copy(packet[1:7], "vorbis")
	// vendor string length = 0 (little-endian)
	// user comment list length = 0 (little-endian)
	return packet
}

func TestVorbisCodec_CompleteHeaderFlow(t *testing.T) {
	// The identification and comment headers follow the real layout; the
	// setup header is complex and cannot be easily synthesized, so a
	// truncated stand-in is used. The identification header goes to
	// newVorbisCodec; we test that:
	// 1. AddHeaderPacket with the comment header returns false (setup still missing)
	// 2. Decode still reports errVorbisDecoderNotInitialized
	// 3. AddHeaderPacket with the setup header returns true, unless the
	//    library rejects the stand-in (then the test ends there)
	// 4. Decode no longer reports errVorbisDecoderNotInitialized

	// Identification and comment headers (mono, 44100Hz)
	identHeader := []byte{
		0x01,                         // packet type
		'v', 'o', 'r', 'b', 'i', 's', // magic
		0x00, 0x00, 0x00, 0x00, // version 0
		0x01,                   // 1 channel (mono)
		0x44, 0xac, 0x00, 0x00, // sample rate 44100 (little-endian)
		0x00, 0x00, 0x00, 0x00, // bitrate max
		0x00, 0x71, 0x02, 0x00, // bitrate nominal (160000)
		0x00, 0x00, 0x00, 0x00, // bitrate min
		0xb8, // blocksize (8 for short, 11 for long)
		0x01, // framing
	}

	commentHeader := []byte{
		0x03,                         // packet type
		'v', 'o', 'r', 'b', 'i', 's', // magic
		0x06, 0x00, 0x00, 0x00, // vendor length = 6
		'l', 'i', 'b', 'o', 'g', 'g', // vendor string
		0x00, 0x00, 0x00, 0x00, // user comment count = 0
		0x01, // framing
	}

	// Minimal valid setup header (this is a simplified version)
	// Real setup headers are much larger but this tests the flow
	setupHeader := []byte{
		0x05,                         // packet type
		'v', 'o', 'r', 'b', 'i', 's', // magic
		// codebook count (0 = 1 codebook)
		0x00,
		// Minimal codebook entry (this won't produce valid audio
		// but tests the header acceptance flow)
	}

	codec, err := newVorbisCodec(identHeader)
	if err != nil {
		t.Fatalf("newVorbisCodec failed: %v", err)
	}

	// Verify initial state
	if codec.Channels() != 1 {
		t.Errorf("expected 1 channel, got %d", codec.Channels())
	}
	if codec.SampleRate() != 44100 {
		t.Errorf("expected 44100 sample rate, got %d", codec.SampleRate())
	}

	// First AddHeaderPacket (comment) should return false
	complete, err := codec.AddHeaderPacket(commentHeader)
	if err != nil {
		t.Fatalf("AddHeaderPacket (comment) failed: %v", err)
	}
	if complete {
		t.Error("expected complete=false after comment header")
	}

	// Decoder should still not be initialized
	pcm := make([]float32, 1024)
	_, err = codec.Decode([]byte{}, pcm)
	if !errors.Is(err, errVorbisDecoderNotInitialized) {
		t.Errorf("expected errVorbisDecoderNotInitialized, got %v", err)
	}

	// Second AddHeaderPacket (setup) - may fail due to invalid setup data
	// but the flow of requiring 3 headers is what we're testing
	complete, err = codec.AddHeaderPacket(setupHeader)

	// The vorbis library will likely reject our minimal setup header,
	// which is expected. The important thing is that we're testing the
	// header collection flow.
	if err != nil {
		// This is expected with our minimal setup header
		t.Logf("Setup header rejected as expected: %v", err)
		return
	}

	// If we get here, the setup header was accepted
	if !complete {
		t.Error("expected complete=true after third header")
	}

	// Verify decoder is now initialized by checking that decode
	// returns a different error (not "headers incomplete")
	_, err = codec.Decode([]byte{}, pcm)
	if errors.Is(err, errVorbisDecoderNotInitialized) {
		t.Error("decoder should be initialized after 3 headers")
	}
}

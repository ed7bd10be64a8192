package daemon

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
)

// The wire format is a compact schema-driven binary encoding: a uvarint
// kind tag followed by that kind's payload fields in declaration order.
// Integers are varints, durations uvarint milliseconds, strings uvarint
// length-prefixed UTF-8. Each connection carries exactly one value per
// direction; the sender half-closes after writing.

// ErrDecode is returned for a malformed or truncated request; the server
// logs it and drops the connection without replying.
var ErrDecode = errors.New("daemon: malformed message")

const maxMessageLen = 1 << 20 // sanity bound on a single request/reply

// EncodeCmd serializes cmd.
func EncodeCmd(cmd PlayerCmd) []byte {
	buf := binary.AppendUvarint(nil, uint64(cmd.Kind))
	switch cmd.Kind {
	case CmdPlaySelected, CmdRemoveTrack:
		buf = binary.AppendVarint(buf, int64(cmd.Index))
	case CmdAddTrack:
		buf = appendString(buf, cmd.URI)
	case CmdDurationNext:
		buf = appendDuration(buf, cmd.Duration)
	case CmdProgress:
		buf = appendDuration(buf, cmd.Position)
	}
	return buf
}

// DecodeCmd parses a value produced by EncodeCmd. Trailing garbage after
// the schema's last field is an error, as is any truncated field.
func DecodeCmd(data []byte) (PlayerCmd, error) {
	d := decoder{buf: data}
	kind := CmdKind(d.uvarint())

	cmd := PlayerCmd{Kind: kind}
	switch kind {
	case CmdPlaySelected, CmdRemoveTrack:
		cmd.Index = int(d.varint())
	case CmdAddTrack:
		cmd.URI = d.string()
	case CmdDurationNext:
		cmd.Duration = d.duration()
	case CmdProgress:
		cmd.Position = d.duration()
	case CmdTogglePause, CmdSkipNext, CmdSkipPrevious,
		CmdVolumeUp, CmdVolumeDown, CmdSpeedUp, CmdSpeedDown,
		CmdSeekForward, CmdSeekBackward,
		CmdGetProgress, CmdFetchStatus, CmdProcessID,
		CmdCycleLoop, CmdToggleGapless,
		CmdReloadPlaylist, CmdReloadConfig,
		CmdShuffle, CmdSavePlaylist, CmdFetchLyrics, CmdQuit,
		CmdEos, CmdAboutToFinish, CmdTick:
		// no payload
	default:
		return PlayerCmd{}, ErrDecode
	}
	if err := d.finish(); err != nil {
		return PlayerCmd{}, err
	}
	return cmd, nil
}

// EncodeReply serializes r.
func EncodeReply(r Reply) []byte {
	buf := binary.AppendUvarint(nil, uint64(r.Kind))
	switch r.Kind {
	case ReplyInt, ReplyStatus, ReplyLoopMode:
		buf = binary.AppendVarint(buf, r.Int)
	case ReplyBool:
		var b uint64
		if r.Bool {
			b = 1
		}
		buf = binary.AppendUvarint(buf, b)
	case ReplyText:
		buf = appendString(buf, r.Text)
	case ReplyProgress:
		buf = appendDuration(buf, r.Position)
		buf = appendDuration(buf, r.TrackDuration)
		buf = binary.AppendVarint(buf, int64(r.TrackIndex))
	}
	return buf
}

// DecodeReply parses a value produced by EncodeReply.
func DecodeReply(data []byte) (Reply, error) {
	d := decoder{buf: data}
	kind := ReplyKind(d.uvarint())

	r := Reply{Kind: kind}
	switch kind {
	case ReplyNone:
	case ReplyInt, ReplyStatus, ReplyLoopMode:
		r.Int = d.varint()
	case ReplyBool:
		r.Bool = d.uvarint() == 1
	case ReplyText:
		r.Text = d.string()
	case ReplyProgress:
		r.Position = d.duration()
		r.TrackDuration = d.duration()
		r.TrackIndex = int(d.varint())
	default:
		return Reply{}, ErrDecode
	}
	if err := d.finish(); err != nil {
		return Reply{}, err
	}
	return r, nil
}

// ReadMessage slurps one whole half-closed stream, bounded by
// maxMessageLen.
func ReadMessage(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxMessageLen+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMessageLen {
		return nil, ErrDecode
	}
	return data, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendDuration(buf []byte, d time.Duration) []byte {
	if d < 0 {
		d = 0
	}
	return binary.AppendUvarint(buf, uint64(d.Milliseconds()))
}

// decoder consumes fields off a byte slice, remembering the first failure
// so call sites can stay linear and check once via finish.
type decoder struct {
	buf  []byte
	fail bool
}

func (d *decoder) uvarint() uint64 {
	if d.fail {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.fail = true
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) varint() int64 {
	if d.fail {
		return 0
	}
	v, n := binary.Varint(d.buf)
	if n <= 0 {
		d.fail = true
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) string() string {
	n := d.uvarint()
	if d.fail || n > uint64(len(d.buf)) {
		d.fail = true
		return ""
	}
	s := string(d.buf[:n])
	d.buf = d.buf[n:]
	return s
}

func (d *decoder) duration() time.Duration {
	return time.Duration(d.uvarint()) * time.Millisecond
}

func (d *decoder) finish() error {
	if d.fail || len(d.buf) != 0 {
		return ErrDecode
	}
	return nil
}

// Package backendplayer is a thin facade over a Sink: volume, speed, seek,
// pause/resume, stop, enqueue-next, and the position/duration clocks the
// General Player reads to answer GetProgress.
package backendplayer

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/llehouerou/wavesd/internal/decode"
	"github.com/llehouerou/wavesd/internal/sink"
)

// ErrSeekOutOfRange is returned by Seek/SeekTo when the target falls
// outside [0, duration]; per policy, position is left unchanged.
var ErrSeekOutOfRange = errors.New("backendplayer: seek target out of range")

const (
	volumeStep = 10
	volumeMin  = 0
	volumeMax  = 100

	speedStep = 10
	speedMin  = 10
	speedMax  = 300
)

// BackendPlayer wraps one Sink with volume/speed expressed as the integer
// percentages the IPC surface replies with, and the gapless armed-next
// bookkeeping add_and_play/enqueue_next coordinate on.
type BackendPlayer struct {
	sink *sink.Sink

	gapless atomic.Bool

	mu            sync.Mutex
	totalDuration time.Duration
	armedNext     bool
	armedNextDur  time.Duration
}

// New returns a BackendPlayer over a freshly constructed Sink.
func New() *BackendPlayer {
	return &BackendPlayer{sink: sink.New()}
}

// Gapless reports whether gapless pre-queueing is armed.
func (b *BackendPlayer) Gapless() bool { return b.gapless.Load() }

// SetGapless sets the gapless flag.
func (b *BackendPlayer) SetGapless(v bool) { b.gapless.Store(v) }

// ToggleGapless flips the gapless flag and returns the new value.
func (b *BackendPlayer) ToggleGapless() bool {
	for {
		old := b.gapless.Load()
		if b.gapless.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Volume returns the current gain as a 0..100 percentage.
func (b *BackendPlayer) Volume() int {
	return int(math.Round(b.sink.Volume() * 100))
}

// SetVolume clamps v to [0,100], applies it, and returns the applied value.
func (b *BackendPlayer) SetVolume(v int) int {
	v = clamp(v, volumeMin, volumeMax)
	b.sink.SetVolume(float64(v) / 100)
	return v
}

// VolumeUp raises volume by one step, saturating at 100.
func (b *BackendPlayer) VolumeUp() int { return b.SetVolume(b.Volume() + volumeStep) }

// VolumeDown lowers volume by one step, saturating at 0.
func (b *BackendPlayer) VolumeDown() int { return b.SetVolume(b.Volume() - volumeStep) }

// Speed returns the current playback rate as a percentage of normal (100).
func (b *BackendPlayer) Speed() int {
	return int(math.Round(b.sink.Speed() * 100))
}

// SetSpeed clamps v to [speedMin,speedMax], applies it, and returns it.
func (b *BackendPlayer) SetSpeed(v int) int {
	v = clamp(v, speedMin, speedMax)
	b.sink.SetSpeed(float64(v) / 100)
	return v
}

// SpeedUp raises speed by one step, saturating at speedMax.
func (b *BackendPlayer) SpeedUp() int { return b.SetSpeed(b.Speed() + speedStep) }

// SpeedDown lowers speed by one step, saturating at speedMin.
func (b *BackendPlayer) SpeedDown() int { return b.SetSpeed(b.Speed() - speedStep) }

// Pause pauses playback.
func (b *BackendPlayer) Pause() { b.sink.Pause() }

// Resume resumes playback.
func (b *BackendPlayer) Resume() { b.sink.Play() }

// IsPaused reports whether playback is paused.
func (b *BackendPlayer) IsPaused() bool { return b.sink.IsPaused() }

// Seek offsets the current position by delta (positive or negative),
// rejecting the request outright if the result would fall outside
// [0, duration]; on rejection the position is left unchanged.
func (b *BackendPlayer) Seek(delta time.Duration) error {
	return b.SeekTo(b.sink.Elapsed() + delta)
}

// SeekTo seeks to an absolute position, subject to the same range check as
// Seek.
func (b *BackendPlayer) SeekTo(target time.Duration) error {
	b.mu.Lock()
	total := b.totalDuration
	b.mu.Unlock()

	if target < 0 {
		return ErrSeekOutOfRange
	}
	if total > 0 && target > total {
		return ErrSeekOutOfRange
	}
	b.sink.Seek(target)
	return nil
}

// Stop requests teardown of the current playback chain.
func (b *BackendPlayer) Stop() { b.sink.Stop() }

// GetProgress returns the current position and the current track's total
// duration (zero if unknown).
func (b *BackendPlayer) GetProgress() (position, duration time.Duration) {
	b.mu.Lock()
	duration = b.totalDuration
	b.mu.Unlock()
	return b.sink.Elapsed(), duration
}

// SkipOne arms a single skip of the currently playing chain.
func (b *BackendPlayer) SkipOne() { b.sink.SkipOne() }

// SetOnProgress installs the audio-realm progress callback (the 100 ms
// telemetry tick). The callback must not block.
func (b *BackendPlayer) SetOnProgress(fn func(position time.Duration)) {
	b.sink.SetOnProgress(fn)
}

// MessageOnEnd arms a one-shot callback fired when the currently tracked
// source ends.
func (b *BackendPlayer) MessageOnEnd(onEnd func()) { b.sink.MessageOnEnd(onEnd) }

// AddAndPlay opens path, sets total_duration from the decoder, and appends
// it to the sink. Any prior content is stopped first unless a gapless
// hand-off is already armed via EnqueueNext (in which case the existing
// queued content is left to play out and this new source is simply
// appended behind it).
func (b *BackendPlayer) AddAndPlay(path string) error {
	decoded, format, err := decode.Decode(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	armed := b.armedNext
	b.mu.Unlock()

	if armed {
		b.AdoptPendingNext()
	} else {
		b.mu.Lock()
		b.totalDuration = format.SampleRate.D(decoded.Len())
		b.mu.Unlock()
		b.sink.Stop()
	}

	_, err = b.sink.Append(decoded, format.SampleRate)
	return err
}

// EnqueueNext opens path and appends it to the sink behind the currently
// playing source, without interrupting playback, arming the gapless
// hand-off marker.
func (b *BackendPlayer) EnqueueNext(path string) error {
	decoded, format, err := decode.Decode(path)
	if err != nil {
		return err
	}

	duration := format.SampleRate.D(decoded.Len())
	_, err = b.sink.Append(decoded, format.SampleRate)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.armedNext = true
	b.armedNextDur = duration
	b.mu.Unlock()
	return nil
}

// SetTotalDuration overwrites the cached duration directly.
func (b *BackendPlayer) SetTotalDuration(d time.Duration) {
	b.mu.Lock()
	b.totalDuration = d
	b.mu.Unlock()
}

// AdoptPendingNext consumes the armed-next marker if set, promoting its
// cached duration to totalDuration without re-probing the file — the
// General Player's gapless hand-off calls this instead of AddAndPlay when
// the playlist reports the new current track's samples are already queued
// on the backend. Returns the resulting totalDuration.
func (b *BackendPlayer) AdoptPendingNext() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.armedNext {
		b.totalDuration = b.armedNextDur
		b.armedNext = false
		b.armedNextDur = 0
	}
	return b.totalDuration
}

// SetArmedNextDuration updates the cached duration of an already-armed next
// track (the DurationNext dispatch event) — a no-op if nothing is armed.
func (b *BackendPlayer) SetArmedNextDuration(d time.Duration) {
	b.mu.Lock()
	if b.armedNext {
		b.armedNextDur = d
	}
	b.mu.Unlock()
}

// Close tears down the underlying sink.
func (b *BackendPlayer) Close() { b.sink.Close() }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

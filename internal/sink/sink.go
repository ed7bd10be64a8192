// Package sink owns the output device and the Queue/Controls pair that
// back it: it is the only thing in the daemon that calls speaker.Init and
// speaker.Play, and the only owner of a Sink's Controls.
package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/wavesd/internal/controls"
	"github.com/llehouerou/wavesd/internal/queue"
	"github.com/llehouerou/wavesd/internal/sourcechain"
)

// deviceBufferFraction matches the teacher's own speaker.Init buffer size
// (a tenth of a second of device-rate samples).
const deviceBufferFraction = time.Second / 10

// Sink owns the OutputStream, the Queue, the shared Controls, a running
// sound count, and the end-signal of the most recently appended source.
type Sink struct {
	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate

	queue      *queue.Queue
	ctrl       *controls.Controls
	elapsed    controls.Elapsed
	soundCnt   atomic.Int64
	lastEnd    <-chan struct{}
	detached   atomic.Bool
	onProgress atomic.Value // func(time.Duration)
}

// New returns an un-initialized Sink; the output device is opened lazily by
// the first Append, at that source's sample rate.
func New() *Sink {
	return &Sink{
		queue: queue.New(),
		ctrl:  controls.New(),
	}
}

// Controls returns the Sink's shared Controls block.
func (s *Sink) Controls() *controls.Controls { return s.ctrl }

// SetOnProgress installs the telemetry-tick progress callback, invoked from
// the audio realm roughly every 100 ms of produced audio with the current
// position. The callback must not block; nil clears it.
func (s *Sink) SetOnProgress(fn func(position time.Duration)) {
	s.onProgress.Store(fn)
}

func (s *Sink) emitProgress(position time.Duration) {
	if fn, ok := s.onProgress.Load().(func(time.Duration)); ok && fn != nil {
		fn(position)
	}
}

// SoundCount returns the number of sources appended but not yet
// end-signaled.
func (s *Sink) SoundCount() int64 { return s.soundCnt.Load() }

// Elapsed returns the running playback position of the currently streaming
// source, as last written by the audio tick.
func (s *Sink) Elapsed() time.Duration { return s.elapsed.Load() }

// Append opens the output device at decoded's rate if this is the first
// source ever appended; otherwise, if decoded's rate differs from the
// already-established device rate, wraps it in a beep.Resample so every
// source the Queue ever sees shares one output rate. If the Sink had been
// stopped, the existing queue is first drained and the stopped flag
// cleared (the "append un-pauses via the stopped→append handshake"
// discipline from spec.md §8).
func (s *Sink) Append(decoded beep.StreamSeekCloser, nativeRate beep.SampleRate) (<-chan struct{}, error) {
	s.mu.Lock()
	if s.ctrl.Stopped() {
		last := s.lastEnd
		s.mu.Unlock()
		if last != nil {
			<-last
		}
		s.ctrl.ClearStopped()
		s.mu.Lock()
	}

	if !s.initialized {
		s.rate = nativeRate
		if err := speaker.Init(s.rate, s.rate.N(deviceBufferFraction)); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.initialized = true
		speaker.Play(s.queue)
	}
	deviceRate := s.rate
	s.mu.Unlock()

	var source beep.Streamer = decoded
	if nativeRate != deviceRate {
		source = beep.Resample(4, nativeRate, deviceRate, decoded)
	}

	built := sourcechain.Build(source, decoded, nativeRate, deviceRate, s.ctrl, &s.elapsed, s.queue.Drop, s.emitProgress)

	done, err := s.queue.Append(built.Streamer)
	if err != nil {
		return nil, err
	}
	s.soundCnt.Add(1)

	s.mu.Lock()
	s.lastEnd = done
	s.mu.Unlock()

	go func() {
		<-done
		s.soundCnt.Add(-1)
	}()

	return done, nil
}

// Volume returns the current gain multiplier.
func (s *Sink) Volume() float64 { return s.ctrl.Volume() }

// SetVolume stores a new gain multiplier.
func (s *Sink) SetVolume(v float64) { s.ctrl.SetVolume(v) }

// Speed returns the current playback-rate multiplier.
func (s *Sink) Speed() float64 { return s.ctrl.Speed() }

// SetSpeed stores a new playback-rate multiplier.
func (s *Sink) SetSpeed(v float64) { s.ctrl.SetSpeed(v) }

// Pause pauses playback.
func (s *Sink) Pause() { s.ctrl.SetPaused(true) }

// Play resumes playback.
func (s *Sink) Play() { s.ctrl.SetPaused(false) }

// IsPaused reports whether playback is paused.
func (s *Sink) IsPaused() bool { return s.ctrl.Paused() }

// TogglePlayback flips paused and returns the new paused state.
func (s *Sink) TogglePlayback() bool { return s.ctrl.TogglePaused() }

// Seek unpauses (if paused) and arms a seek to target on the next control
// tick.
func (s *Sink) Seek(target time.Duration) {
	if s.ctrl.Paused() {
		s.ctrl.SetPaused(false)
	}
	s.ctrl.SetSeek(target)
}

// SkipOne arms a single skip of the currently playing chain, bounded by the
// queued source count.
func (s *Sink) SkipOne() {
	if s.queue.Len() == 0 {
		return
	}
	s.ctrl.AddToClear(1)
}

// Clear drops every queued source, blocks until the drain completes, then
// pauses.
func (s *Sink) Clear() {
	n := s.queue.Len()
	if n == 0 {
		s.ctrl.SetPaused(true)
		return
	}
	s.ctrl.SetToClear(n)
	s.SleepUntilEnd()
	s.ctrl.SetPaused(true)
}

// Stop requests the audio thread tear down playback at the next control
// tick.
func (s *Sink) Stop() { s.ctrl.RequestStop() }

// Detach suppresses the automatic stop-on-teardown behavior of Close.
func (s *Sink) Detach() { s.detached.Store(true) }

// SleepUntilEnd blocks until the end-signal of the currently tracked source
// fires.
func (s *Sink) SleepUntilEnd() {
	s.mu.Lock()
	last := s.lastEnd
	s.mu.Unlock()
	if last != nil {
		<-last
	}
}

// MessageOnEnd arms a one-shot wait on the currently tracked source's
// end-signal and calls onEnd exactly once when it fires.
func (s *Sink) MessageOnEnd(onEnd func()) {
	s.mu.Lock()
	last := s.lastEnd
	s.mu.Unlock()
	if last == nil || onEnd == nil {
		return
	}
	go func() {
		<-last
		onEnd()
	}()
}

// Close tears the Sink down: the Queue stops keeping the device alive, and
// unless Detach was called, playback is stopped too.
func (s *Sink) Close() {
	s.queue.SetKeepAliveIfEmpty(false)
	if !s.detached.Load() {
		s.ctrl.RequestStop()
	}
	s.queue.Close()
}

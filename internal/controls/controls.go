// Package controls holds the shared state a sink's audio callback and its
// owning control goroutine both touch. The audio tick writes Elapsed and
// clears the one-shot requests it consumes (skip, to-clear, seek);
// everything else is written by the control realm and only read by the tick.
package controls

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MinVolume is the floor applied to Volume so the amplify adaptor never
// multiplies by exactly zero (denormal starvation on some audio backends).
const MinVolume = 0.0001

// Controls is shared by pointer between a Sink and every source chain it
// builds; the source chain never references the Sink back.
type Controls struct {
	paused  atomic.Bool
	stopped atomic.Bool
	doSkip  atomic.Bool

	mu      sync.Mutex
	volume  float64
	speed   float64
	toClear int
	seek    *time.Duration
}

// New returns Controls at unity volume and speed, unpaused and unstopped.
func New() *Controls {
	return &Controls{volume: 1.0, speed: 1.0}
}

// Paused reports whether playback is currently paused.
func (c *Controls) Paused() bool { return c.paused.Load() }

// SetPaused sets the paused flag directly.
func (c *Controls) SetPaused(p bool) { c.paused.Store(p) }

// TogglePaused flips paused and returns the new value.
func (c *Controls) TogglePaused() bool {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Stopped reports whether a stop has been requested.
func (c *Controls) Stopped() bool { return c.stopped.Load() }

// RequestStop marks the sink for teardown; the next control tick honors it.
func (c *Controls) RequestStop() { c.stopped.Store(true) }

// ClearStopped resets the stopped flag, used by the append→drain→clear
// handshake when a source is appended to a previously-stopped sink.
func (c *Controls) ClearStopped() { c.stopped.Store(false) }

// RequestSkip arms a one-shot skip of the currently playing chain.
func (c *Controls) RequestSkip() { c.doSkip.Store(true) }

// ConsumeSkip reports and clears a pending skip request, atomically.
func (c *Controls) ConsumeSkip() bool { return c.doSkip.CompareAndSwap(true, false) }

// Volume returns the current gain multiplier.
func (c *Controls) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetVolume stores a new gain multiplier, clamped to [MinVolume, +inf).
func (c *Controls) SetVolume(v float64) {
	if v < MinVolume {
		v = MinVolume
	}
	c.mu.Lock()
	c.volume = v
	c.mu.Unlock()
}

// Speed returns the current playback-rate multiplier.
func (c *Controls) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed stores a new playback-rate multiplier; non-positive values are
// rejected in favor of the previous speed.
func (c *Controls) SetSpeed(s float64) {
	if s <= 0 {
		return
	}
	c.mu.Lock()
	c.speed = s
	c.mu.Unlock()
}

// AddToClear increases the count of queued sources to drop on the next tick,
// bounded by the caller (the Sink knows the queued count).
func (c *Controls) AddToClear(n int) {
	c.mu.Lock()
	c.toClear += n
	c.mu.Unlock()
}

// SetToClear overwrites the to-clear counter outright (used by Sink.clear,
// which drops the entire queued count).
func (c *Controls) SetToClear(n int) {
	c.mu.Lock()
	c.toClear = n
	c.mu.Unlock()
}

// ConsumeToClear returns and zeroes the to-clear counter.
func (c *Controls) ConsumeToClear() int {
	c.mu.Lock()
	n := c.toClear
	c.toClear = 0
	c.mu.Unlock()
	return n
}

// SetSeek arms a pending seek target, overwriting any prior unconsumed one.
func (c *Controls) SetSeek(target time.Duration) {
	t := target
	c.mu.Lock()
	c.seek = &t
	c.mu.Unlock()
}

// ConsumeSeek returns and clears a pending seek target, atomically with the
// read: once consumed, a given seek request fires exactly once.
func (c *Controls) ConsumeSeek() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seek == nil {
		return 0, false
	}
	t := *c.seek
	c.seek = nil
	return t, true
}

// Elapsed is a lock-free cell for the running playback position, written
// only by the audio tick and read only by the control realm.
type Elapsed struct {
	bits atomic.Uint64
}

// Store records the elapsed duration. Audio-realm only.
func (e *Elapsed) Store(d time.Duration) {
	e.bits.Store(math.Float64bits(d.Seconds()))
}

// Load returns the most recently stored elapsed duration.
func (e *Elapsed) Load() time.Duration {
	secs := math.Float64frombits(e.bits.Load())
	return time.Duration(secs * float64(time.Second))
}

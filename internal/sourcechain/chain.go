// Package sourcechain builds the lazy sample-transformer tower each queued
// track streams through: an outer pair of periodic ticks (control, then
// telemetry) wrapping stoppable, skippable, amplify, pausable and speed
// adaptors around a decoded leaf source.
package sourcechain

import (
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavesd/internal/controls"
)

const (
	controlTickInterval   = 5 * time.Millisecond
	telemetryTickInterval = 100 * time.Millisecond
)

// Built is one fully composed chain: the outermost Streamer is what the
// Queue actually stores and pulls from.
type Built struct {
	Streamer beep.Streamer

	decoded    beep.StreamSeekCloser
	nativeRate beep.SampleRate
	stop       *stoppable
	skip       *skippable
}

// RequestStop arms the stoppable adaptor; the chain yields end-of-source on
// its very next pull.
func (b *Built) RequestStop() { b.stop.stop() }

// RequestSkip arms the skippable adaptor; the chain reports end-of-source
// on its next pull without draining the decoded leaf.
func (b *Built) RequestSkip() { b.skip.skip() }

// Seek moves the decoded leaf to the sample nearest target, in the leaf's
// own native sample rate (pre device-rate resampling, if any).
func (b *Built) Seek(target time.Duration) error {
	return b.decoded.Seek(b.nativeRate.N(target))
}

// Close releases the decoded leaf's underlying resource.
func (b *Built) Close() error {
	return b.decoded.Close()
}

// Build composes the chain. source is the sample-producing input to the
// speed adaptor: decoded itself, or decoded wrapped in a device-rate
// beep.Resample when the leaf's native rate differs from the Sink's output
// rate. decoded is kept separately because Seek/Position must address the
// leaf's own sample domain regardless of any outer resampling. nativeRate
// is decoded's sample rate (used for position/progress math); deviceRate is
// the Sink's output rate (used for tick-interval sample counting, since the
// ticks sit downstream of any device-rate resample). ctrl is the Sink's
// shared Controls; elapsed is the Sink's shared elapsed-time cell, written
// only here. dropQueued is called with the to_clear count when the control
// tick observes one pending; it is the Queue's bulk-drop operation.
// onProgress is called on the telemetry tick with the current position.
func Build(
	source beep.Streamer,
	decoded beep.StreamSeekCloser,
	nativeRate, deviceRate beep.SampleRate,
	ctrl *controls.Controls,
	elapsed *controls.Elapsed,
	dropQueued func(n int),
	onProgress func(position time.Duration),
) *Built {
	sp := newSpeed(source, ctrl)
	pa := newPausable(sp, ctrl)
	am := newAmplify(pa, ctrl)
	sk := newSkippable(am)
	st := newStoppable(sk)

	telemetry := newPeriodicTick(st, deviceRate, telemetryTickInterval, func() {
		if onProgress != nil {
			onProgress(nativeRate.D(decoded.Position()))
		}
	})

	control := newPeriodicTick(telemetry, deviceRate, controlTickInterval, func() {
		if ctrl.Stopped() {
			st.stop()
		}
		if ctrl.ConsumeSkip() {
			sk.skip()
		}
		if n := ctrl.ConsumeToClear(); n > 0 && dropQueued != nil {
			dropQueued(n)
		}
		if target, ok := ctrl.ConsumeSeek(); ok {
			_ = decoded.Seek(nativeRate.N(target))
		}
		elapsed.Store(nativeRate.D(decoded.Position()))
	})

	return &Built{Streamer: control, decoded: decoded, nativeRate: nativeRate, stop: st, skip: sk}
}

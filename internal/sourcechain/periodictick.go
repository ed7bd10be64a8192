package sourcechain

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// periodicTick invokes fn every interval of produced audio time, not
// wall-clock time — it counts samples actually pulled through inner.
type periodicTick struct {
	inner           beep.Streamer
	intervalSamples int
	produced        int
	fn              func()
}

func newPeriodicTick(inner beep.Streamer, sr beep.SampleRate, interval time.Duration, fn func()) *periodicTick {
	samples := sr.N(interval)
	if samples < 1 {
		samples = 1
	}
	return &periodicTick{inner: inner, intervalSamples: samples, fn: fn}
}

func (p *periodicTick) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = p.inner.Stream(samples)
	p.produced += n
	for p.produced >= p.intervalSamples {
		p.produced -= p.intervalSamples
		p.fn()
	}
	return n, ok
}

func (p *periodicTick) Err() error {
	return p.inner.Err()
}

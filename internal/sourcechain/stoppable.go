package sourcechain

import "github.com/gopxl/beep/v2"

// stoppable wraps the whole chain so a stop() is observed before any inner
// work happens on the next pull.
type stoppable struct {
	inner   beep.Streamer
	stopped bool
}

func newStoppable(inner beep.Streamer) *stoppable {
	return &stoppable{inner: inner}
}

func (s *stoppable) stop() {
	s.stopped = true
}

func (s *stoppable) Stream(samples [][2]float64) (n int, ok bool) {
	if s.stopped {
		return 0, false
	}
	return s.inner.Stream(samples)
}

func (s *stoppable) Err() error {
	return s.inner.Err()
}

package sourcechain

import "github.com/gopxl/beep/v2"

// skippable reports end-of-source on the first pull after skip() and on
// every pull after that. It does not drain inner: the samples inner has not
// yet produced are never pulled.
type skippable struct {
	inner     beep.Streamer
	skipped   bool
	exhausted bool
}

func newSkippable(inner beep.Streamer) *skippable {
	return &skippable{inner: inner}
}

// skip marks the adaptor to end on its next pull.
func (s *skippable) skip() {
	s.skipped = true
}

func (s *skippable) Stream(samples [][2]float64) (n int, ok bool) {
	if s.exhausted {
		return 0, false
	}
	if s.skipped {
		s.exhausted = true
		s.skipped = false
		return 0, false
	}
	n, ok = s.inner.Stream(samples)
	if !ok {
		s.exhausted = true
	}
	return n, ok
}

func (s *skippable) Err() error {
	return s.inner.Err()
}

package sourcechain

import (
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavesd/internal/controls"
)

// pausable yields silence without advancing inner while Controls.Paused is
// set, and resumes with the next unread inner sample once cleared.
type pausable struct {
	inner beep.Streamer
	ctrl  *controls.Controls
}

func newPausable(inner beep.Streamer, ctrl *controls.Controls) *pausable {
	return &pausable{inner: inner, ctrl: ctrl}
}

func (p *pausable) Stream(samples [][2]float64) (n int, ok bool) {
	if p.ctrl.Paused() {
		for i := range samples {
			samples[i] = [2]float64{0, 0}
		}
		return len(samples), true
	}
	return p.inner.Stream(samples)
}

func (p *pausable) Err() error {
	return p.inner.Err()
}

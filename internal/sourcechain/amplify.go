package sourcechain

import (
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavesd/internal/controls"
)

// amplify multiplies every sample by Controls.Volume, which is always
// clamped at or above controls.MinVolume.
type amplify struct {
	inner beep.Streamer
	ctrl  *controls.Controls
}

func newAmplify(inner beep.Streamer, ctrl *controls.Controls) *amplify {
	return &amplify{inner: inner, ctrl: ctrl}
}

func (a *amplify) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = a.inner.Stream(samples)
	gain := a.ctrl.Volume()
	for i := range n {
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
	return n, ok
}

func (a *amplify) Err() error {
	return a.inner.Err()
}

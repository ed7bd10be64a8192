package sourcechain

import (
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavesd/internal/controls"
)

// resampleQuality is beep's linear-interpolation quality knob for the live
// ratio changes a speed control needs; higher values cost more CPU per tick
// and buy negligible fidelity at the ratios this adaptor actually uses.
const resampleQuality = 4

// speed re-resamples the inner stream at Controls.Speed, applied immediately
// on the next produced sample — beep.Resampler keeps no pre-resampled
// lookahead, so a ratio change never bleeds stale output.
type speed struct {
	resampler *beep.Resampler
	ctrl      *controls.Controls
}

func newSpeed(inner beep.Streamer, ctrl *controls.Controls) *speed {
	return &speed{
		resampler: beep.ResampleRatio(resampleQuality, 1, inner),
		ctrl:      ctrl,
	}
}

func (s *speed) Stream(samples [][2]float64) (n int, ok bool) {
	s.resampler.SetRatio(s.ctrl.Speed())
	return s.resampler.Stream(samples)
}

func (s *speed) Err() error {
	return s.resampler.Err()
}

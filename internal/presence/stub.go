//go:build !linux

package presence

import (
	"time"

	"github.com/llehouerou/wavesd/internal/generalplayer"
	"github.com/llehouerou/wavesd/internal/playlist"
)

// MPRISAdapter is a no-op on non-Linux platforms (no D-Bus session bus).
type MPRISAdapter struct{}

// NewMPRISAdapter returns a no-op adapter on non-Linux platforms.
func NewMPRISAdapter(_ *generalplayer.GeneralPlayer) (*MPRISAdapter, error) {
	return &MPRISAdapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *MPRISAdapter) Close() error { return nil }

// Update is a no-op on non-Linux platforms.
func (a *MPRISAdapter) Update(_ *playlist.Track, _ playlist.Status, _ time.Duration) {}

package controls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTogglePaused(t *testing.T) {
	c := New()
	assert.False(t, c.Paused())
	assert.True(t, c.TogglePaused())
	assert.True(t, c.Paused())
	assert.False(t, c.TogglePaused())
	assert.False(t, c.Paused())
}

func TestConsumeSkipIsOneShot(t *testing.T) {
	c := New()
	assert.False(t, c.ConsumeSkip())
	c.RequestSkip()
	assert.True(t, c.ConsumeSkip())
	assert.False(t, c.ConsumeSkip())
}

func TestVolumeClampedAboveZero(t *testing.T) {
	c := New()
	c.SetVolume(0)
	assert.Equal(t, MinVolume, c.Volume())
	c.SetVolume(0.5)
	assert.Equal(t, 0.5, c.Volume())
}

func TestSpeedRejectsNonPositive(t *testing.T) {
	c := New()
	c.SetSpeed(2.0)
	c.SetSpeed(0)
	c.SetSpeed(-1)
	assert.Equal(t, 2.0, c.Speed())
}

func TestToClearAccumulatesAndConsumes(t *testing.T) {
	c := New()
	c.AddToClear(2)
	c.AddToClear(3)
	assert.Equal(t, 5, c.ConsumeToClear())
	assert.Equal(t, 0, c.ConsumeToClear())
}

func TestSetToClearOverwrites(t *testing.T) {
	c := New()
	c.AddToClear(5)
	c.SetToClear(1)
	assert.Equal(t, 1, c.ConsumeToClear())
}

func TestSeekConsumedOnce(t *testing.T) {
	c := New()
	_, ok := c.ConsumeSeek()
	assert.False(t, ok)

	c.SetSeek(30 * time.Second)
	target, ok := c.ConsumeSeek()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, target)

	_, ok = c.ConsumeSeek()
	assert.False(t, ok)
}

func TestElapsedRoundTrips(t *testing.T) {
	var e Elapsed
	e.Store(12500 * time.Millisecond)
	assert.InDelta(t, 12.5, e.Load().Seconds(), 0.0001)
}

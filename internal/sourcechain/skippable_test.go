package sourcechain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkippableDrainsOnceThenExhausted(t *testing.T) {
	inner := &constStreamer{remaining: 100, val: 1.0}
	s := newSkippable(inner)

	buf := make([][2]float64, 10)
	n, ok := s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	s.skip()

	n, ok = s.Stream(buf)
	assert.False(t, ok)
	assert.Equal(t, 0, n)

	// Exhausted: further pulls keep reporting end-of-source, even if asked
	// to skip again.
	s.skip()
	n, ok = s.Stream(buf)
	assert.False(t, ok)
	assert.Equal(t, 0, n)
}

func TestSkippableExhaustsNaturally(t *testing.T) {
	inner := &constStreamer{remaining: 5, val: 1.0}
	s := newSkippable(inner)

	buf := make([][2]float64, 10)
	n, ok := s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	n, ok = s.Stream(buf)
	assert.False(t, ok)
	assert.Equal(t, 0, n)
}

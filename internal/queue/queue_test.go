package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constStreamer struct {
	remaining int
	val       float64
}

func (c *constStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if c.remaining <= 0 {
		return 0, false
	}
	toWrite := len(samples)
	if toWrite > c.remaining {
		toWrite = c.remaining
	}
	for i := range toWrite {
		samples[i] = [2]float64{c.val, c.val}
	}
	c.remaining -= toWrite
	return toWrite, true
}

func (c *constStreamer) Err() error { return nil }

func TestQueueYieldsSilenceWhenEmptyAndKeptAlive(t *testing.T) {
	q := New()
	buf := make([][2]float64, 4)
	n, ok := q.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	for _, s := range buf {
		assert.Equal(t, [2]float64{0, 0}, s)
	}
}

func TestQueueEndsWhenEmptyAndNotKeptAlive(t *testing.T) {
	q := New()
	q.SetKeepAliveIfEmpty(false)
	buf := make([][2]float64, 4)
	n, ok := q.Stream(buf)
	assert.False(t, ok)
	assert.Equal(t, 0, n)
}

func TestQueueAdvancesAcrossItemsWithinOneCall(t *testing.T) {
	q := New()
	first := &constStreamer{remaining: 10, val: 1.0}
	second := &constStreamer{remaining: 10, val: 2.0}
	_, err := q.Append(first)
	require.NoError(t, err)
	_, err = q.Append(second)
	require.NoError(t, err)

	buf := make([][2]float64, 25)
	n, ok := q.Stream(buf)
	require.True(t, ok)
	assert.Equal(t, 20, n)
	for i := range 10 {
		assert.Equal(t, 1.0, buf[i][0])
	}
	for i := 10; i < 20; i++ {
		assert.Equal(t, 2.0, buf[i][0])
	}
}

func TestQueueEndSignalFiresOnCompletion(t *testing.T) {
	q := New()
	done, err := q.Append(&constStreamer{remaining: 5, val: 1.0})
	require.NoError(t, err)

	buf := make([][2]float64, 5)
	q.Stream(buf)
	// The item reports end-of-source on the pull after its last sample.
	q.Stream(buf)

	select {
	case <-done:
	default:
		t.Fatal("end-signal should have fired once the item completed")
	}
}

func TestQueueDropClosesEndSignalsAndRemoves(t *testing.T) {
	q := New()
	done1, _ := q.Append(&constStreamer{remaining: 100, val: 1.0})
	done2, _ := q.Append(&constStreamer{remaining: 100, val: 2.0})
	q.Append(&constStreamer{remaining: 100, val: 3.0})

	q.Drop(2)
	assert.Equal(t, 1, q.Len())

	for _, done := range []<-chan struct{}{done1, done2} {
		select {
		case <-done:
		default:
			t.Fatal("dropped item's end-signal should be closed")
		}
	}
}

func TestQueueCloseRefusesFurtherAppends(t *testing.T) {
	q := New()
	q.Close()
	_, err := q.Append(&constStreamer{remaining: 5, val: 1.0})
	assert.ErrorIs(t, err, ErrClosed)
}

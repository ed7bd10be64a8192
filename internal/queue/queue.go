// Package queue implements the FIFO of source chains a Sink plays through:
// items stream in order, each fires its own end-signal on completion (by
// any cause), and the queue can optionally keep the output device open by
// yielding silence while empty.
package queue

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("queue: closed")

type item struct {
	streamer beep.Streamer
	done     chan struct{}
}

// Queue is a beep.Streamer itself: the Sink's OutputStream pulls directly
// from it.
type Queue struct {
	mu               sync.Mutex
	items            []*item
	keepAliveIfEmpty bool
	closed           bool
	lastErr          error
}

// New returns an empty Queue that keeps the device alive (yields silence)
// while no source is queued.
func New() *Queue {
	return &Queue{keepAliveIfEmpty: true}
}

// SetKeepAliveIfEmpty toggles whether Stream yields silence or ends when
// the queue runs dry.
func (q *Queue) SetKeepAliveIfEmpty(keepAlive bool) {
	q.mu.Lock()
	q.keepAliveIfEmpty = keepAlive
	q.mu.Unlock()
}

// Append enqueues s and returns a receive-only channel that is closed the
// moment s reaches end-of-source, whether it ran to completion, was
// skipped, or was dropped by Drop/Close.
func (q *Queue) Append(s beep.Streamer) (<-chan struct{}, error) {
	done := make(chan struct{})
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	q.items = append(q.items, &item{streamer: s, done: done})
	return done, nil
}

// Len returns the number of items still queued, including the playing head.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drop forcibly ends up to n front items (including the playing head if it
// falls within n), closing each one's end-signal. It is the mechanism
// behind both skip_one (n=1, via Controls.to_clear) and clear (n=Len()).
func (q *Queue) Drop(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.items) {
		n = len(q.items)
	}
	for i := 0; i < n; i++ {
		close(q.items[i].done)
	}
	q.items = q.items[n:]
}

// Close drops every queued item and refuses further appends.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	items := q.items
	q.items = nil
	q.mu.Unlock()
	for _, it := range items {
		close(it.done)
	}
}

// Stream implements beep.Streamer, pulling from the head item and
// advancing the queue as items are exhausted.
func (q *Queue) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	for filled < len(samples) {
		q.mu.Lock()
		if len(q.items) == 0 {
			keepAlive := q.keepAliveIfEmpty
			q.mu.Unlock()
			if filled > 0 {
				return filled, true
			}
			if !keepAlive {
				return 0, false
			}
			for i := range samples {
				samples[i] = [2]float64{0, 0}
			}
			return len(samples), true
		}
		head := q.items[0]
		q.mu.Unlock()

		got, hok := head.streamer.Stream(samples[filled:])
		filled += got
		if hok {
			continue
		}

		q.mu.Lock()
		if err := head.streamer.Err(); err != nil {
			q.lastErr = err
		}
		if len(q.items) > 0 && q.items[0] == head {
			close(head.done)
			q.items = q.items[1:]
		}
		q.mu.Unlock()
	}
	return filled, true
}

// Err returns the most recent error surfaced by an exhausted item.
func (q *Queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

package queue

import "github.com/hyp3rd/ewrap"

var (
	// ErrClosed is returned when work is submitted to a closed queue.
	ErrClosed = ewrap.New("queue is closed")

	// ErrFull is returned when the queue drops a task because its buffer is full.
	ErrFull = ewrap.New("queue buffer is full")

	// ErrFlushTimeout is returned when queued work does not finish within the wait timeout.
	ErrFlushTimeout = ewrap.New("flush timed out")
)

// Package queue provides the serial work queue a rotating sink can be bound to.
//
// A Serial runs every submitted task on one goroutine in submission order, so writes,
// flushes and rotations of the same sink never overlap. Submit returns as soon as the
// task is buffered; Do and Flush wait for the queue to reach the submitted point.
package queue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
)

const (
	defaultBufferSize  = 1024
	defaultWaitTimeout = 5 * time.Second
)

// Task is a unit of work executed on the queue goroutine.
type Task func()

// Overflow defines how Submit behaves when the buffer is full.
type Overflow uint8

const (
	// OverflowBlock makes Submit block until there is space in the buffer.
	OverflowBlock Overflow = iota
	// OverflowDropNewest drops the incoming task and returns ErrFull.
	OverflowDropNewest
)

// Config configures a Serial queue.
type Config struct {
	// BufferSize is the capacity of the task channel.
	BufferSize int
	// WaitTimeout bounds how long Flush waits for queued tasks.
	WaitTimeout time.Duration
	// Overflow controls what happens when the buffer is full.
	Overflow Overflow
	// DropHandler is invoked every time a task is dropped.
	DropHandler func()
	// PanicHandler receives the error built from a recovered task panic.
	PanicHandler func(error)
	// MetricsReporter receives a snapshot after each processed or dropped task.
	MetricsReporter func(Metrics)
}

// Metrics provides insight into the internal state of a Serial queue.
type Metrics struct {
	Enqueued   uint64
	Processed  uint64
	Dropped    uint64
	Panics     uint64
	QueueDepth int
}

// Serial executes tasks one at a time on a single goroutine.
type Serial struct {
	config  Config
	taskCh  chan Task
	stopCh  chan struct{}
	flushCh chan chan struct{}
	wg      sync.WaitGroup

	// mu guards closed and keeps Close from racing a send in progress.
	mu        sync.RWMutex
	closed    bool
	metricsMu sync.Mutex

	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// NewSerial creates a Serial queue and starts its goroutine.
func NewSerial(config Config) *Serial {
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}

	if config.WaitTimeout <= 0 {
		config.WaitTimeout = defaultWaitTimeout
	}

	q := &Serial{
		config:  config,
		taskCh:  make(chan Task, config.BufferSize),
		stopCh:  make(chan struct{}),
		flushCh: make(chan chan struct{}),
	}

	q.wg.Add(1)

	go q.run()

	return q
}

// Submit buffers task for execution and returns without waiting for it. When the
// buffer is full it blocks or drops the task according to the overflow strategy.
func (q *Serial) Submit(task Task) error {
	if task == nil {
		return nil
	}

	return q.enqueue(task, q.config.Overflow == OverflowBlock)
}

// SubmitBlocking buffers task, waiting for space whatever the overflow strategy.
func (q *Serial) SubmitBlocking(task Task) error {
	if task == nil {
		return nil
	}

	return q.enqueue(task, true)
}

// Do runs task on the queue and waits for it to finish, up to the configured wait
// timeout. Do always blocks for buffer space regardless of the overflow strategy. A task
// that outlives the timeout still runs to completion. Do must not be called from a
// running task.
func (q *Serial) Do(task Task) error {
	done := make(chan struct{})

	err := q.enqueue(func() {
		defer close(done)

		if task != nil {
			task()
		}
	}, true)
	if err != nil {
		return err
	}

	timer := time.NewTimer(q.config.WaitTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrFlushTimeout
	}
}

func (q *Serial) enqueue(task Task, block bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	if !block {
		select {
		case q.taskCh <- task:
			q.enqueued.Add(1)

			return nil
		default:
			q.recordDrop()

			return ErrFull
		}
	}

	select {
	case q.taskCh <- task:
		q.enqueued.Add(1)

		return nil
	case <-q.stopCh:
		return ErrClosed
	}
}

// Flush waits until every task buffered before the call has run, or until the
// configured wait timeout elapses.
func (q *Serial) Flush() error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	doneCh := make(chan struct{})

	timer := time.NewTimer(q.config.WaitTimeout)
	defer timer.Stop()

	select {
	case q.flushCh <- doneCh:
	case <-q.stopCh:
		return ErrClosed
	case <-timer.C:
		return ErrFlushTimeout
	}

	select {
	case <-doneCh:
		return nil
	case <-timer.C:
		return ErrFlushTimeout
	}
}

// Close stops accepting tasks, runs everything already buffered and stops the goroutine.
// Closing an already closed queue returns ErrClosed.
func (q *Serial) Close() error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return ErrClosed
	}

	q.closed = true
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()

	return nil
}

// Metrics returns a snapshot of the current counters.
func (q *Serial) Metrics() Metrics {
	return Metrics{
		Enqueued:   q.enqueued.Load(),
		Processed:  q.processed.Load(),
		Dropped:    q.dropped.Load(),
		Panics:     q.panics.Load(),
		QueueDepth: len(q.taskCh),
	}
}

func (q *Serial) run() {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.taskCh:
			q.execute(task)
		case doneCh := <-q.flushCh:
			q.handleFlush(doneCh)
		case <-q.stopCh:
			q.drain()

			return
		}
	}
}

// handleFlush runs the tasks buffered at this moment before signaling completion.
func (q *Serial) handleFlush(doneCh chan struct{}) {
	for {
		select {
		case task := <-q.taskCh:
			q.execute(task)
		default:
			close(doneCh)

			return
		}
	}
}

func (q *Serial) drain() {
	for {
		select {
		case task := <-q.taskCh:
			q.execute(task)
		case doneCh := <-q.flushCh:
			close(doneCh)
		default:
			return
		}
	}
}

func (q *Serial) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.panics.Add(1)

			if q.config.PanicHandler != nil {
				q.config.PanicHandler(ewrap.New("queued task panicked").
					WithMetadata("panic", fmt.Sprint(r)))
			}
		}

		q.processed.Add(1)
		q.reportMetrics()
	}()

	task()
}

func (q *Serial) recordDrop() {
	q.dropped.Add(1)

	if q.config.DropHandler != nil {
		q.config.DropHandler()
	}

	q.reportMetrics()
}

func (q *Serial) reportMetrics() {
	reporter := q.config.MetricsReporter
	if reporter == nil {
		return
	}

	q.metricsMu.Lock()
	defer q.metricsMu.Unlock()

	reporter(q.Metrics())
}

// Package rotating implements a log file sink that archives the current file once it
// grows past a size or age threshold and keeps a bounded number of archives.
//
// Rotation closes the current file, renames it into the archive folder as
// <base><date suffix>.<ext>, tags it with the owner identifier and the archival time,
// and starts a fresh file. Retention lists the archive folder, keeps the newest
// archives of the owner and deletes the rest. The folder listing plus the tags is the
// only record of the archives, so state survives restarts and external cleanup.
//
// A Sink is either synchronous, in which case the caller serializes calls, or bound to
// a serial work queue, in which case every write, flush and rotation runs on the queue
// goroutine in submission order.
package rotating

import (
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/internal/output"
	"github.com/hyp3rd/hyperrotate/internal/queue"
	"github.com/hyp3rd/hyperrotate/internal/utils"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

// maxPooledPayload caps the size of buffers kept for reuse by queued writes.
const maxPooledPayload = 64 * 1024

var (
	// ErrQueueFull is returned by Write when the queue drops the write.
	ErrQueueFull = queue.ErrFull
	// ErrFlushTimeout is returned when queued work does not finish within the wait timeout.
	ErrFlushTimeout = queue.ErrFlushTimeout
)

// SinkState is the lifecycle state of a Sink.
type SinkState uint32

const (
	// StateUninitialized is the state before New completes.
	StateUninitialized SinkState = iota
	// StateOpen accepts writes.
	StateOpen
	// StateRotating is held while the current file is being archived.
	StateRotating
	// StateClosed rejects writes.
	StateClosed
)

// String returns the name of the state.
func (s SinkState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateRotating:
		return "rotating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sink is a rotating file sink. It implements the output Writer contract
// (Write, Sync, Close).
type Sink struct {
	config     hyperrotate.Config
	identifier string
	base       string
	ext        string

	thresholds Thresholds
	state      State

	writer    *FileWriter
	archiver  *Archiver
	retention *Retention
	store     attrstore.Store
	events    hyperrotate.EventSink
	now       func() time.Time

	queue *queue.Serial

	lifecycle atomic.Uint32
	closed    atomic.Bool

	counters    counters
	reporter    func(Metrics)
	metricsMu   sync.Mutex
	payloadPool sync.Pool
}

var _ output.Writer = (*Sink)(nil)

// New creates a Sink for cfg.Path.
//
// The archive folder is cfg.ArchiveFolder, or the folder of the current file when unset,
// and is created if missing. When the current file already exists its size and creation
// time are restored, and it is archived immediately unless cfg.ShouldAppend is set and
// the restored state is still within the thresholds.
func New(cfg hyperrotate.Config, opts ...Option) (*Sink, error) {
	cfg.Normalize()

	err := cfg.Validate()
	if err != nil {
		return nil, ewrap.Wrap(&classified{kind: ErrInvalidConfig, cause: err}, "creating rotating sink").
			WithMetadata("path", cfg.Path)
	}

	sink := &Sink{
		config: cfg,
		events: cfg.Events,
		now:    time.Now,
		store:  attrstore.New(),
	}

	for _, opt := range opts {
		opt(sink)
	}

	sink.base, sink.ext = utils.SplitName(cfg.Path)

	sink.identifier = cfg.Identifier
	if sink.identifier == "" {
		sink.identifier = sink.base
	}

	sink.thresholds = ThresholdsFromConfig(cfg)
	_ = sink.setArchiveFolder(cfg.ArchiveFolder)

	keys := attrstore.KeysFor(cfg.AttributeNamespace)

	sink.writer = NewFileWriter(cfg.Path, cfg.FileMode, cfg.AppendMarker)
	sink.writer.OnOpen(sink.announce)

	sink.archiver = &Archiver{
		Writer:     sink.writer,
		Store:      sink.store,
		Keys:       keys,
		Identifier: sink.identifier,
		Events:     sink.events,
		Now:        sink.now,
		Completion: sink.completeRotation,
	}

	sink.retention = NewRetention(sink.store, keys, sink.events)
	sink.retention.OnDelete = sink.recordDelete

	err = sink.start()
	if err != nil {
		return nil, err
	}

	if cfg.Queue.Enabled {
		sink.queue = queue.NewSerial(queue.Config{
			BufferSize:   cfg.Queue.BufferSize,
			WaitTimeout:  cfg.Queue.WaitTimeout,
			Overflow:     queueOverflow(cfg.Queue.Overflow),
			DropHandler:  sink.recordDrop,
			PanicHandler: sink.recordPanic,
		})
	}

	sink.lifecycle.Store(uint32(StateOpen))

	return sink, nil
}

// Write appends p to the current file and rotates when a threshold is reached. The
// bytes always land in the file that is then rotated. Rotation failures are never
// returned; they reach the completion callback and the event sink.
//
// With a queue bound, p is copied and queued and Write returns len(p) unless the queue
// drops it or the sink is closed.
func (s *Sink) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrWriterClosed
	}

	if s.queue == nil {
		err := s.write(p)
		if err != nil {
			return 0, err
		}

		return len(p), nil
	}

	payload := s.borrowPayload(p)

	err := s.queue.Submit(func() {
		defer s.releasePayload(payload)

		_ = s.write(*payload)
	})
	if err != nil {
		s.releasePayload(payload)

		if errors.Is(err, queue.ErrClosed) {
			return 0, ErrWriterClosed
		}

		return 0, err
	}

	return len(p), nil
}

// WriteString writes msg, adding a trailing newline when missing.
func (s *Sink) WriteString(msg string) error {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	_, err := s.Write([]byte(msg))

	return err
}

// Rotate archives the current file now, regardless of the thresholds, then applies
// retention.
func (s *Sink) Rotate() error {
	var err error

	runErr := s.run(func() {
		err = s.rotateAndCleanup()
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// Flush commits written data to stable storage and then calls completion, if non-nil.
// With a queue bound the flush is queued behind pending writes and Flush returns once
// it is queued.
func (s *Sink) Flush(completion func()) error {
	if s.closed.Load() {
		return ErrWriterClosed
	}

	if s.queue == nil {
		err := s.flush()

		if completion != nil {
			completion()
		}

		return err
	}

	err := s.queue.SubmitBlocking(func() {
		_ = s.flush()

		if completion != nil {
			completion()
		}
	})
	if errors.Is(err, queue.ErrClosed) {
		return ErrWriterClosed
	}

	return err
}

// Sync flushes the current file and waits for it, including every queued write.
func (s *Sink) Sync() error {
	var err error

	runErr := s.run(func() {
		err = s.flush()
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// Close drains the queue, closes the current file and rejects later writes.
// Closing a closed sink does nothing.
func (s *Sink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.queue != nil {
		_ = s.queue.Close()
	}

	err := s.writer.Close()

	s.lifecycle.Store(uint32(StateClosed))
	s.reportMetrics()

	return err
}

// SetMaxArchiveCount changes the number of archives kept. Lowering it deletes the
// surplus archives immediately.
func (s *Sink) SetMaxArchiveCount(count uint8) error {
	var err error

	runErr := s.run(func() {
		err = s.setMaxArchiveCount(count)
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// SetMaxFileSize changes the size threshold. 0 disables size based rotation.
func (s *Sink) SetMaxFileSize(size uint64) error {
	return s.run(func() {
		s.thresholds.MaxFileSize = hyperrotate.NormalizeMaxFileSize(size)
	})
}

// SetMaxAge changes the age threshold. Ages below one second disable age based rotation.
func (s *Sink) SetMaxAge(age time.Duration) error {
	return s.run(func() {
		s.thresholds.MaxAge = hyperrotate.NormalizeMaxAge(age)
	})
}

// SetArchiveFolder moves future archives to folder, creating it. An empty folder
// selects the folder of the current file. Existing archives are not moved.
func (s *Sink) SetArchiveFolder(folder string) error {
	var err error

	runErr := s.run(func() {
		err = s.setArchiveFolder(folder)
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// ApplyThresholds replaces the size, age and archive count thresholds, and the archive
// folder when t.ArchiveFolder is set. Lowering the archive count applies retention.
func (s *Sink) ApplyThresholds(t Thresholds) error {
	var err error

	runErr := s.run(func() {
		s.thresholds.MaxFileSize = hyperrotate.NormalizeMaxFileSize(t.MaxFileSize)
		s.thresholds.MaxAge = hyperrotate.NormalizeMaxAge(t.MaxAge)

		if t.ArchiveFolder != "" {
			err = s.setArchiveFolder(t.ArchiveFolder)
		}

		err = errors.Join(err, s.setMaxArchiveCount(t.MaxArchiveCount))
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// Thresholds returns the thresholds in effect, or the zero value when the sink is
// closed or its queue does not answer in time.
func (s *Sink) Thresholds() Thresholds {
	var t Thresholds

	_ = s.run(func() {
		t = s.thresholds
	})

	return t
}

// ArchivedFiles lists the archives of this sink, most recently archived first.
func (s *Sink) ArchivedFiles() ([]ArchivedFileRecord, error) {
	var (
		records []ArchivedFileRecord
		err     error
	)

	runErr := s.run(func() {
		records, err = s.retention.ListArchived(s.thresholds.ArchiveFolder, s.identifier)
	})
	if runErr != nil {
		return nil, runErr
	}

	return records, err
}

// PurgeArchives deletes every archive of this sink.
func (s *Sink) PurgeArchives() error {
	var err error

	runErr := s.run(func() {
		err = s.cleanup(0)
	})
	if runErr != nil {
		return runErr
	}

	return err
}

// State returns the lifecycle state.
func (s *Sink) State() SinkState {
	return SinkState(s.lifecycle.Load())
}

// Identifier returns the owner tag written on archives.
func (s *Sink) Identifier() string {
	return s.identifier
}

// Path returns the path of the current file.
func (s *Sink) Path() string {
	return s.config.Path
}

// Metrics returns a snapshot of the sink counters.
func (s *Sink) Metrics() Metrics {
	metrics := s.counters.snapshot()

	if s.queue != nil {
		metrics.QueueDepth = s.queue.Metrics().QueueDepth
	}

	return metrics
}

// start opens the current file, archiving a pre-existing one first when required.
func (s *Sink) start() error {
	now := s.now()
	path := s.config.Path

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		s.state.Reset(now)

		_, err = s.writer.Open(path, s.config.ShouldAppend)

		return err
	}

	s.state = State{
		Size:      uint64(info.Size()),
		StartTime: utils.CreationTime(path, info),
	}

	if !s.config.ShouldAppend || ShouldRotate(s.state, s.thresholds, now) {
		_ = s.rotateAndCleanup()

		if s.writer.IsOpen() {
			return nil
		}
	}

	_, err = s.writer.Open(path, true)

	return err
}

func (s *Sink) write(p []byte) error {
	s.state.Add(len(p))

	err := s.writer.Write(p)
	if err != nil {
		s.counters.writeFailures.Add(1)
		s.events.Event(hyperrotate.ErrorLevel, "writing log file failed",
			hyperrotate.Path(s.writer.Path()), hyperrotate.Err(err))
	} else {
		s.counters.writes.Add(1)
		s.counters.bytesWritten.Add(uint64(len(p)))
	}

	if ShouldRotate(s.state, s.thresholds, s.now()) {
		_ = s.rotateAndCleanup()
	}

	s.reportMetrics()

	return err
}

func (s *Sink) flush() error {
	err := s.writer.Flush()
	if err != nil {
		s.events.Event(hyperrotate.ErrorLevel, "flushing log file failed",
			hyperrotate.Path(s.writer.Path()), hyperrotate.Err(err))
	}

	return err
}

func (s *Sink) rotateAndCleanup() error {
	err := s.rotate()
	if err != nil {
		return err
	}

	_ = s.cleanup(s.thresholds.MaxArchiveCount)

	return nil
}

func (s *Sink) rotate() error {
	previous := s.lifecycle.Swap(uint32(StateRotating))
	defer s.lifecycle.Store(previous)

	archivePath := utils.ArchiveName(
		s.thresholds.ArchiveFolder,
		s.base,
		s.ext,
		s.config.DateSuffixFormat,
		s.now(),
	)

	err := s.archiver.Rotate(archivePath, &s.state)
	if err != nil {
		s.events.Event(hyperrotate.ErrorLevel, "rotating log file failed",
			hyperrotate.Path(s.writer.Path()),
			hyperrotate.Str("archive", archivePath),
			hyperrotate.Err(err))
	}

	return err
}

func (s *Sink) cleanup(keep uint8) error {
	err := s.retention.Cleanup(s.thresholds.ArchiveFolder, s.identifier, keep)
	if err != nil {
		s.events.Event(hyperrotate.WarnLevel, "archive cleanup incomplete",
			hyperrotate.Path(s.thresholds.ArchiveFolder), hyperrotate.Err(err))
	}

	return err
}

func (s *Sink) setMaxArchiveCount(count uint8) error {
	previous := s.thresholds.MaxArchiveCount
	s.thresholds.MaxArchiveCount = count

	if count < previous {
		return s.cleanup(count)
	}

	return nil
}

func (s *Sink) setArchiveFolder(folder string) error {
	resolved := utils.ResolveArchiveFolder(folder, s.config.Path)
	s.thresholds.ArchiveFolder = resolved

	err := utils.EnsureDir(resolved)
	if err != nil {
		s.events.Event(hyperrotate.ErrorLevel, "creating archive folder failed",
			hyperrotate.Path(resolved), hyperrotate.Err(err))
	}

	return err
}

// run executes task synchronously, or on the queue when one is bound.
func (s *Sink) run(task func()) error {
	if s.closed.Load() {
		return ErrWriterClosed
	}

	if s.queue == nil {
		task()

		return nil
	}

	err := s.queue.Do(task)
	if errors.Is(err, queue.ErrClosed) {
		return ErrWriterClosed
	}

	return err
}

func (s *Sink) announce(result OpenResult) {
	verb := "writing"
	if result.Appended {
		verb = "appending"
	}

	s.events.Event(hyperrotate.InfoLevel, verb+" log to: "+result.Path,
		hyperrotate.Path(result.Path), hyperrotate.Bool("appended", result.Appended))
}

func (s *Sink) completeRotation(success bool) {
	if success {
		s.counters.rotations.Add(1)
	} else {
		s.counters.rotationFailures.Add(1)
	}

	if s.config.Completion != nil {
		s.config.Completion(success)
	}
}

func (s *Sink) recordDelete(_ string, err error) {
	if err != nil {
		s.counters.deleteFailures.Add(1)

		return
	}

	s.counters.archivesDeleted.Add(1)
}

func (s *Sink) recordDrop() {
	s.counters.queueDropped.Add(1)
	s.events.Event(hyperrotate.WarnLevel, "log write dropped: queue full",
		hyperrotate.Path(s.config.Path))
	s.reportMetrics()
}

func (s *Sink) recordPanic(err error) {
	s.events.Event(hyperrotate.ErrorLevel, "queued sink task panicked",
		hyperrotate.Path(s.config.Path), hyperrotate.Err(err))
}

func (s *Sink) reportMetrics() {
	if s.reporter == nil {
		return
	}

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	s.reporter(s.Metrics())
}

func (s *Sink) borrowPayload(p []byte) *[]byte {
	buf, _ := s.payloadPool.Get().(*[]byte)
	if buf == nil {
		data := make([]byte, 0, len(p))
		buf = &data
	}

	*buf = append((*buf)[:0], p...)

	return buf
}

func (s *Sink) releasePayload(buf *[]byte) {
	if buf == nil || cap(*buf) > maxPooledPayload {
		return
	}

	*buf = (*buf)[:0]
	s.payloadPool.Put(buf)
}

func queueOverflow(strategy hyperrotate.QueueOverflowStrategy) queue.Overflow {
	if strategy == hyperrotate.QueueOverflowDropNewest {
		return queue.OverflowDropNewest
	}

	return queue.OverflowBlock
}

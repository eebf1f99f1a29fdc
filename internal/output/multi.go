package output

import (
	"fmt"
	"os"
	"sync"

	"github.com/hyp3rd/ewrap"
)

type namedWriter struct {
	name   string
	writer Writer
}

// MultiWriter delivers every payload to each registered writer in registration order.
// A failing destination does not stop delivery to the others.
type MultiWriter struct {
	mu      sync.RWMutex
	writers []namedWriter
	closed  bool
}

// NewMultiWriter creates a MultiWriter over writers, named after their type and position.
// Nil writers are skipped; ErrNoWriters is returned when none remain.
func NewMultiWriter(writers ...Writer) (*MultiWriter, error) {
	mw := &MultiWriter{writers: make([]namedWriter, 0, len(writers))}

	for i, w := range writers {
		if w == nil {
			continue
		}

		mw.writers = append(mw.writers, namedWriter{name: fmt.Sprintf("%T[%d]", w, i), writer: w})
	}

	if len(mw.writers) == 0 {
		return nil, ErrNoWriters
	}

	return mw, nil
}

// AddWriter registers writer under name.
func (mw *MultiWriter) AddWriter(name string, writer Writer) error {
	if writer == nil {
		return ewrap.New("cannot add nil writer").WithMetadata("name", name)
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.closed {
		return ErrWriterClosed
	}

	for _, existing := range mw.writers {
		if existing.name == name || existing.writer == writer {
			return ewrap.Wrap(ErrDuplicateWriter, "adding writer").WithMetadata("name", name)
		}
	}

	mw.writers = append(mw.writers, namedWriter{name: name, writer: writer})

	return nil
}

// RemoveWriter unregisters the writer named name and returns it, or nil when unknown.
// The removed writer is not closed.
func (mw *MultiWriter) RemoveWriter(name string) Writer {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for i, existing := range mw.writers {
		if existing.name == name {
			mw.writers = append(mw.writers[:i], mw.writers[i+1:]...)

			return existing.writer
		}
	}

	return nil
}

// Names returns the registered writer names in delivery order.
func (mw *MultiWriter) Names() []string {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	names := make([]string, 0, len(mw.writers))
	for _, w := range mw.writers {
		names = append(names, w.name)
	}

	return names
}

// Write sends payload to every writer. It reports len(payload) when at least one writer
// accepted the full payload, and an error describing every failed destination.
func (mw *MultiWriter) Write(payload []byte) (int, error) {
	results := mw.WriteAll(payload)
	if results == nil {
		return 0, ErrWriterClosed
	}

	failed := make([]string, 0, len(results))
	succeeded := 0

	for _, res := range results {
		switch {
		case res.Err != nil:
			failed = append(failed, fmt.Sprintf("%s: %v", res.Name, res.Err))
		case res.Bytes != len(payload):
			failed = append(failed, fmt.Sprintf("%s: wrote %d/%d bytes", res.Name, res.Bytes, len(payload)))
		default:
			succeeded++
		}
	}

	if len(failed) == 0 {
		return len(payload), nil
	}

	err := ewrap.New("write operation partially failed").
		WithMetadata("failed_writes", failed).
		WithMetadata("succeeded", succeeded).
		WithMetadata("total_writers", len(results))

	if succeeded > 0 {
		return len(payload), err
	}

	return 0, err
}

// WriteAll sends payload to every writer and returns one result per destination.
// It returns nil once the MultiWriter is closed.
func (mw *MultiWriter) WriteAll(payload []byte) []WriteResult {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	if mw.closed {
		return nil
	}

	results := make([]WriteResult, 0, len(mw.writers))

	for _, w := range mw.writers {
		n, err := w.writer.Write(payload)
		results = append(results, WriteResult{Name: w.name, Bytes: n, Err: err})
	}

	return results
}

// Sync syncs every writer, skipping standard streams.
func (mw *MultiWriter) Sync() error {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	var failed []string

	for _, w := range mw.writers {
		if bypassStandardStream(w.writer) {
			continue
		}

		err := w.writer.Sync()
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", w.name, err))
		}
	}

	if len(failed) > 0 {
		return ewrap.New("sync operation partially failed").
			WithMetadata("failed_syncs", failed).
			WithMetadata("total_writers", len(mw.writers))
	}

	return nil
}

// Close closes every writer except standard streams. Later writes return ErrWriterClosed.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.closed {
		return nil
	}

	mw.closed = true

	var failed []string

	for _, w := range mw.writers {
		if bypassStandardStream(w.writer) {
			continue
		}

		err := w.writer.Close()
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", w.name, err))
		}
	}

	total := len(mw.writers)
	mw.writers = nil

	if len(failed) > 0 {
		return ewrap.New("close operation partially failed").
			WithMetadata("failed_closes", failed).
			WithMetadata("total_writers", total)
	}

	return nil
}

func bypassStandardStream(writer Writer) bool {
	switch w := writer.(type) {
	case *os.File:
		return isStandardStream(w)
	case *writerAdapter:
		if f, ok := w.writer.(*os.File); ok {
			return isStandardStream(f)
		}
	}

	return false
}

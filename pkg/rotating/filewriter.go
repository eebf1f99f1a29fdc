package rotating

import (
	"os"
	"path/filepath"

	"github.com/hyp3rd/hyperrotate/internal/utils"
)

// OpenResult describes a successful Open.
type OpenResult struct {
	// Path is the opened file.
	Path string
	// Appended is true when existing content was kept.
	Appended bool
}

// FileWriter owns the handle of the current log file. It holds at most one open handle
// and is not safe for concurrent use; the Sink serializes access to it.
type FileWriter struct {
	path       string
	file       *os.File
	appendMode bool
	mode       os.FileMode
	marker     *string
	onOpen     func(OpenResult)
}

// NewFileWriter creates a FileWriter for path without opening it. New files get mode;
// marker, when non-nil, is written on its own line every time an existing file is
// appended to.
func NewFileWriter(path string, mode os.FileMode, marker *string) *FileWriter {
	return &FileWriter{path: path, mode: mode, marker: marker}
}

// OnOpen registers fn to be called after every successful Open.
func (w *FileWriter) OnOpen(fn func(OpenResult)) {
	w.onOpen = fn
}

// Open opens path, closing any handle still held. When appendMode is false or the file
// does not exist the file is created or truncated; otherwise it is opened for appending
// and the append marker is written.
func (w *FileWriter) Open(path string, appendMode bool) (OpenResult, error) {
	closeErr := w.Close()
	if closeErr != nil {
		return OpenResult{}, closeErr
	}

	w.path = path

	err := utils.EnsureDir(filepath.Dir(path))
	if err != nil {
		return OpenResult{}, classify(ErrOpenFailed, err, "creating log directory", path)
	}

	appended := appendMode && fileExists(path)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appended {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(path, flags, w.mode)
	if err != nil {
		return OpenResult{}, classify(ErrOpenFailed, err, "opening log file", path)
	}

	if appended && w.marker != nil {
		_, err = file.WriteString(*w.marker + "\n")
		if err != nil {
			_ = file.Close()

			return OpenResult{}, classify(ErrOpenFailed, err, "writing append marker", path)
		}
	}

	w.file = file
	w.appendMode = appended

	result := OpenResult{Path: path, Appended: appended}
	if w.onOpen != nil {
		w.onOpen(result)
	}

	return result, nil
}

// Write appends p to the current file. Without an open handle the bytes are dropped and
// ErrWriterClosed is returned. Failures are not retried.
func (w *FileWriter) Write(p []byte) error {
	if w.file == nil {
		return classify(ErrWriterClosed, nil, "writing log file", w.path)
	}

	_, err := w.file.Write(p)
	if err != nil {
		return classify(ErrWriteFailed, err, "writing log file", w.path)
	}

	return nil
}

// Flush commits written data to stable storage. It is a no-op without an open handle.
func (w *FileWriter) Flush() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Sync()
	if err != nil {
		return classify(ErrWriteFailed, err, "syncing log file", w.path)
	}

	return nil
}

// Close flushes and releases the handle. The handle is released even when the flush
// fails. Closing a closed writer does nothing.
func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil

	if syncErr != nil {
		return classify(ErrWriteFailed, syncErr, "final sync before close", w.path)
	}

	if closeErr != nil {
		return classify(ErrWriteFailed, closeErr, "closing log file", w.path)
	}

	return nil
}

// Path returns the path of the current file.
func (w *FileWriter) Path() string {
	return w.path
}

// IsOpen reports whether a handle is held.
func (w *FileWriter) IsOpen() bool {
	return w.file != nil
}

// AppendMode reports whether the current handle kept existing content.
func (w *FileWriter) AppendMode() bool {
	return w.appendMode
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

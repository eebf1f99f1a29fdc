package output

import (
	"github.com/hyp3rd/ewrap"
)

// Common errors for the output package.
var (
	// ErrWriterClosed is returned when attempting to write to a closed writer.
	ErrWriterClosed = ewrap.New("writer is closed")

	// ErrNoWriters is returned when a MultiWriter is built without any usable writer.
	ErrNoWriters = ewrap.New("at least one writer is required")

	// ErrDuplicateWriter is returned when a writer name is already registered.
	ErrDuplicateWriter = ewrap.New("writer already registered")
)

// Package output provides the byte-level destinations the sinks write to.
//
// This package implements:
// - ConsoleWriter, with automatic color support based on terminal capabilities
// - MultiWriter, which delivers the same payload to several named destinations
// - an adapter turning any io.Writer into a Writer
//
// Each destination implements Writer, which extends io.Writer with methods for
// synchronization and cleanup. The rotating file sink satisfies the same interface, so it
// can be combined with a console through MultiWriter.
package output

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/hyp3rd/ewrap"
	"github.com/mattn/go-isatty"

	"github.com/hyp3rd/hyperrotate"
)

const (
	defaultBufferSize = 4096
	maxLookupBytes    = 32
)

// ColorMode determines how colors are handled.
type ColorMode int

const (
	// ColorModeAuto detects if the output supports colors.
	ColorModeAuto ColorMode = iota
	// ColorModeAlways forces color output.
	ColorModeAlways
	// ColorModeNever disables color output.
	ColorModeNever
)

// ConsoleWriter writes to a terminal or any io.Writer, coloring each payload by level.
type ConsoleWriter struct {
	out        io.Writer
	mode       ColorMode
	isTerminal bool
	palette    map[hyperrotate.Level]LevelStyle

	mu     sync.Mutex
	buffer *bytes.Buffer
}

// NewConsoleWriter creates a ConsoleWriter. A nil out defaults to os.Stderr, where the
// sinks' own events belong.
func NewConsoleWriter(out io.Writer, mode ColorMode) *ConsoleWriter {
	if out == nil {
		out = os.Stderr
	}

	return &ConsoleWriter{
		out:        out,
		mode:       mode,
		isTerminal: IsTerminal(out),
		palette:    DefaultPalette(),
		buffer:     bytes.NewBuffer(make([]byte, 0, defaultBufferSize)),
	}
}

// Write writes payload, guessing its level from the first bytes for coloring.
func (w *ConsoleWriter) Write(payload []byte) (int, error) {
	return w.WriteLevel(detectLevel(payload), payload)
}

// WriteLevel writes payload colored for level. The returned count covers the payload only.
func (w *ConsoleWriter) WriteLevel(level hyperrotate.Level, payload []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.shouldUseColors() {
		n, err := w.out.Write(payload)
		if err != nil {
			return n, ewrap.Wrap(err, "failed writing to console output")
		}

		return n, nil
	}

	style, ok := w.palette[level]
	if !ok {
		style = LevelStyle{Color: ColorReset}
	}

	w.buffer.Reset()
	w.buffer.WriteString(style.Color.Sequence(style.Style))
	w.buffer.Write(payload)
	w.buffer.WriteString(resetSequence)

	_, err := w.out.Write(w.buffer.Bytes())
	if err != nil {
		return 0, ewrap.Wrap(err, "failed writing to console output")
	}

	return len(payload), nil
}

// Sync synchronizes the underlying writer when it supports it. Standard streams are skipped.
func (w *ConsoleWriter) Sync() error {
	if f, ok := w.out.(*os.File); ok && isStandardStream(f) {
		return nil
	}

	if syncer, ok := w.out.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

// Close closes the underlying writer when it is closable and not a standard stream.
func (w *ConsoleWriter) Close() error {
	if f, ok := w.out.(*os.File); ok && isStandardStream(f) {
		return nil
	}

	if closer, ok := w.out.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return ewrap.Wrap(err, "closing console writer")
		}
	}

	return nil
}

// shouldUseColors determines if color output should be used based on mode and terminal support.
//
//nolint:exhaustive // ColorModeAuto is handled as default.
func (w *ConsoleWriter) shouldUseColors() bool {
	switch w.mode {
	case ColorModeAlways:
		return true
	case ColorModeNever:
		return false
	default:
		return w.isTerminal
	}
}

// detectLevel looks for a level name in the first bytes of p.
func detectLevel(p []byte) hyperrotate.Level {
	head := p
	if len(p) > maxLookupBytes {
		head = p[:maxLookupBytes]
	}

	for _, level := range []hyperrotate.Level{
		hyperrotate.TraceLevel,
		hyperrotate.DebugLevel,
		hyperrotate.WarnLevel,
		hyperrotate.ErrorLevel,
		hyperrotate.FatalLevel,
	} {
		if bytes.Contains(head, []byte(level.String())) {
			return level
		}
	}

	return hyperrotate.InfoLevel
}

func isStandardStream(f *os.File) bool {
	return f == os.Stdout || f == os.Stderr
}

// IsTerminal reports whether w is a terminal, including Cygwin terminals.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

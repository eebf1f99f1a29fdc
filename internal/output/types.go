package output

import (
	"io"
	"strconv"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
)

// Writer is the byte sink contract shared by the console, the rotating file sink and the
// fan-out writer.
type Writer interface {
	// Write writes the given bytes to the underlying output.
	Write(p []byte) (n int, err error)
	// Sync ensures that all data has been written.
	Sync() error
	// Close closes the writer and releases any resources.
	Close() error
}

type writerAdapter struct {
	writer io.Writer
}

// NewWriterAdapter wraps a plain io.Writer so it satisfies Writer. Sync and Close are
// forwarded when the underlying value supports them.
func NewWriterAdapter(w io.Writer) Writer {
	if writer, ok := w.(Writer); ok {
		return writer
	}

	return &writerAdapter{writer: w}
}

func (w *writerAdapter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	if err != nil {
		return n, ewrap.Wrap(err, "failed to write to writer")
	}

	return n, nil
}

func (w *writerAdapter) Sync() error {
	if syncer, ok := w.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

func (w *writerAdapter) Close() error {
	closer, ok := w.writer.(io.Closer)
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return ewrap.Wrap(err, "failed to close writer")
	}

	return nil
}

// WriteResult records the outcome of one destination of a fan-out write.
type WriteResult struct {
	Name  string // registered name of the writer
	Bytes int    // bytes written
	Err   error  // error returned by the writer, if any
}

// ColorCode is an ANSI foreground color.
type ColorCode int

const (
	// ColorReset removes any color or style formatting.
	ColorReset ColorCode = 0
	// ColorRed is the ANSI code for red text.
	ColorRed ColorCode = 31
	// ColorGreen is the ANSI code for green text.
	ColorGreen ColorCode = 32
	// ColorYellow is the ANSI code for yellow text.
	ColorYellow ColorCode = 33
	// ColorMagenta is the ANSI code for magenta text.
	ColorMagenta ColorCode = 35
	// ColorCyan is the ANSI code for cyan text.
	ColorCyan ColorCode = 36
	// ColorWhite is the ANSI code for white text.
	ColorWhite ColorCode = 37
)

// Style is an ANSI text attribute.
type Style int

const (
	// StyleBold enables bold text.
	StyleBold Style = 1
	// StyleDim enables dimmed text.
	StyleDim Style = 2
	// StyleNormal leaves the intensity unchanged.
	StyleNormal Style = 22
)

const resetSequence = "\x1b[0m"

// Sequence returns the escape sequence selecting color c with style s.
func (c ColorCode) Sequence(s Style) string {
	if c == ColorReset {
		return resetSequence
	}

	if s == StyleNormal {
		return "\x1b[" + strconv.Itoa(int(c)) + "m"
	}

	return "\x1b[" + strconv.Itoa(int(s)) + ";" + strconv.Itoa(int(c)) + "m"
}

// Wrap surrounds text with the sequence for c and s and a trailing reset.
func (c ColorCode) Wrap(s Style, text string) string {
	if c == ColorReset {
		return text
	}

	return c.Sequence(s) + text + resetSequence
}

// LevelStyle is the color and style used for one level.
type LevelStyle struct {
	Color ColorCode
	Style Style
}

// DefaultPalette returns the level styles used by ConsoleWriter.
func DefaultPalette() map[hyperrotate.Level]LevelStyle {
	return map[hyperrotate.Level]LevelStyle{
		hyperrotate.TraceLevel: {ColorWhite, StyleDim},
		hyperrotate.DebugLevel: {ColorCyan, StyleNormal},
		hyperrotate.InfoLevel:  {ColorGreen, StyleNormal},
		hyperrotate.WarnLevel:  {ColorYellow, StyleBold},
		hyperrotate.ErrorLevel: {ColorRed, StyleBold},
		hyperrotate.FatalLevel: {ColorMagenta, StyleBold},
	}
}

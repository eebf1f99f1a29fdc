// Package metalog routes the events a sink reports about itself to a destination other than
// the sink: a colored console, a zap logger, or several of them at once.
package metalog

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/internal/output"
)

const (
	levelPadding      = 5
	defaultLineBuffer = 256
)

// ColorMode determines when console lines are colored.
type ColorMode = output.ColorMode

const (
	// ColorAuto colors lines when the destination is a terminal.
	ColorAuto = output.ColorModeAuto
	// ColorAlways forces colors.
	ColorAlways = output.ColorModeAlways
	// ColorNever disables colors.
	ColorNever = output.ColorModeNever
)

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithTimeFormat sets the layout of the timestamp prefix. An empty layout removes it.
func WithTimeFormat(layout string) ConsoleOption {
	return func(c *Console) {
		c.timeFormat = layout
	}
}

// WithConsoleClock replaces the clock used for timestamps.
func WithConsoleClock(now func() time.Time) ConsoleOption {
	return func(c *Console) {
		if now != nil {
			c.now = now
		}
	}
}

// Console is an EventSink writing one line per event:
//
//	2024-05-17T10:30:00Z [ WARN] tagging archived file failed {path=/var/log/app_x.log, error=...}
//
// Lines are colored by level when the destination is a terminal.
type Console struct {
	out        *output.ConsoleWriter
	minimum    atomic.Uint32
	timeFormat string
	now        func() time.Time
	buffers    sync.Pool
}

var _ hyperrotate.EventSink = (*Console)(nil)

// NewConsole creates a Console writing to out (os.Stderr when nil) and dropping events below minimum.
func NewConsole(out io.Writer, mode ColorMode, minimum hyperrotate.Level, opts ...ConsoleOption) *Console {
	console := &Console{
		out:        output.NewConsoleWriter(out, mode),
		timeFormat: time.RFC3339,
		now:        time.Now,
		buffers: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, defaultLineBuffer))
			},
		},
	}

	console.minimum.Store(uint32(minimum))

	for _, opt := range opts {
		opt(console)
	}

	return console
}

// SetLevel changes the minimum level.
func (c *Console) SetLevel(level hyperrotate.Level) {
	c.minimum.Store(uint32(level))
}

// Level returns the minimum level.
func (c *Console) Level() hyperrotate.Level {
	//nolint:gosec // only ever set from a Level.
	return hyperrotate.Level(c.minimum.Load())
}

// Event formats and writes a single line. Write failures are discarded.
func (c *Console) Event(level hyperrotate.Level, msg string, fields ...hyperrotate.Field) {
	if !level.Enabled(c.Level()) {
		return
	}

	buf, ok := c.buffers.Get().(*bytes.Buffer)
	if !ok {
		buf = bytes.NewBuffer(make([]byte, 0, defaultLineBuffer))
	}

	buf.Reset()
	c.format(buf, level, msg, fields)

	_, _ = c.out.WriteLevel(level, buf.Bytes())

	c.buffers.Put(buf)
}

func (c *Console) format(buf *bytes.Buffer, level hyperrotate.Level, msg string, fields []hyperrotate.Field) {
	if c.timeFormat != "" {
		buf.WriteString(c.now().Format(c.timeFormat))
		buf.WriteByte(' ')
	}

	appendPaddedLevel(buf, level.String())
	buf.WriteString(msg)

	if len(fields) > 0 {
		appendFields(buf, fields)
	}

	buf.WriteByte('\n')
}

func appendPaddedLevel(buf *bytes.Buffer, name string) {
	buf.WriteByte('[')

	for range levelPadding - len(name) {
		buf.WriteByte(' ')
	}

	buf.WriteString(name)
	buf.WriteString("] ")
}

func appendFields(buf *bytes.Buffer, fields []hyperrotate.Field) {
	buf.WriteString(" {")

	for i, field := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}

		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(field.Value))
	}

	buf.WriteByte('}')
}

// formatValue renders a field value for a console line.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%+v", val)
	}
}

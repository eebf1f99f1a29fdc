package metalog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/hyperrotate"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
}

func TestConsoleFormat(t *testing.T) {
	tests := []struct {
		name   string
		level  hyperrotate.Level
		msg    string
		fields []hyperrotate.Field
		want   string
	}{
		{
			name:  "no fields",
			level: hyperrotate.InfoLevel,
			msg:   "writing log to: /var/log/app.log",
			want:  "2024-05-17T10:30:00Z [ INFO] writing log to: /var/log/app.log\n",
		},
		{
			name:  "with fields",
			level: hyperrotate.WarnLevel,
			msg:   "tagging archived file failed",
			fields: []hyperrotate.Field{
				hyperrotate.Path("/tmp/a.log"),
				hyperrotate.Err(errors.New("boom")),
			},
			want: "2024-05-17T10:30:00Z [ WARN] tagging archived file failed {path=/tmp/a.log, error=boom}\n",
		},
		{
			name:   "nil and numeric values",
			level:  hyperrotate.ErrorLevel,
			msg:    "cleanup",
			fields: []hyperrotate.Field{hyperrotate.Err(nil), hyperrotate.Uint64("size", 42), hyperrotate.Bool("ok", false)},
			want:   "2024-05-17T10:30:00Z [ERROR] cleanup {error=null, size=42, ok=false}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			console := NewConsole(&buf, ColorNever, hyperrotate.TraceLevel, WithConsoleClock(fixedClock))
			console.Event(tt.level, tt.msg, tt.fields...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConsoleMinimumLevel(t *testing.T) {
	var buf bytes.Buffer

	console := NewConsole(&buf, ColorNever, hyperrotate.WarnLevel, WithTimeFormat(""))

	console.Event(hyperrotate.InfoLevel, "rotated log file")
	assert.Empty(t, buf.String())

	console.Event(hyperrotate.ErrorLevel, "rotating log file failed")
	assert.Equal(t, "[ERROR] rotating log file failed\n", buf.String())

	console.SetLevel(hyperrotate.DebugLevel)
	assert.Equal(t, hyperrotate.DebugLevel, console.Level())

	buf.Reset()
	console.Event(hyperrotate.InfoLevel, "rotated log file")
	assert.Equal(t, "[ INFO] rotated log file\n", buf.String())
}

func TestConsoleColors(t *testing.T) {
	var buf bytes.Buffer

	console := NewConsole(&buf, ColorAlways, hyperrotate.TraceLevel, WithTimeFormat(""))
	console.Event(hyperrotate.ErrorLevel, "writing log file failed")

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "\x1b["), "expected an escape sequence, got %q", line)
	assert.Contains(t, line, "[ERROR] writing log file failed\n")
	assert.True(t, strings.HasSuffix(line, "\x1b[0m"))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "null"},
		{name: "string", value: "x", want: "x"},
		{name: "int", value: -3, want: "-3"},
		{name: "uint64", value: uint64(7), want: "7"},
		{name: "bool", value: true, want: "true"},
		{name: "time", value: fixedClock(), want: "2024-05-17T10:30:00Z"},
		{name: "duration", value: time.Second, want: "1s"},
		{name: "error", value: errors.New("bad"), want: "bad"},
		{name: "struct", value: struct{ A int }{A: 1}, want: "{A:1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}
}

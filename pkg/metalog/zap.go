package metalog

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyp3rd/hyperrotate"
)

// Zap is an EventSink forwarding events to a zap logger.
type Zap struct {
	logger *zap.Logger
}

var _ hyperrotate.EventSink = (*Zap)(nil)

// NewZap wraps logger. A nil logger discards every event.
func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Zap{logger: logger}
}

// Event writes msg at the zap level matching level.
// Fatal events are logged at error level; a sink never terminates the process.
func (z *Zap) Event(level hyperrotate.Level, msg string, fields ...hyperrotate.Field) {
	entry := z.logger.Check(zapLevel(level), msg)
	if entry == nil {
		return
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		zapFields = append(zapFields, toZapField(field))
	}

	entry.Write(zapFields...)
}

// Sync flushes the wrapped logger.
func (z *Zap) Sync() error {
	return z.logger.Sync()
}

func zapLevel(level hyperrotate.Level) zapcore.Level {
	switch level {
	case hyperrotate.TraceLevel, hyperrotate.DebugLevel:
		return zapcore.DebugLevel
	case hyperrotate.InfoLevel:
		return zapcore.InfoLevel
	case hyperrotate.WarnLevel:
		return zapcore.WarnLevel
	case hyperrotate.ErrorLevel, hyperrotate.FatalLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapField(field hyperrotate.Field) zap.Field {
	switch val := field.Value.(type) {
	case nil:
		return zap.Skip()
	case string:
		return zap.String(field.Key, val)
	case bool:
		return zap.Bool(field.Key, val)
	case int:
		return zap.Int(field.Key, val)
	case uint64:
		return zap.Uint64(field.Key, val)
	case time.Duration:
		return zap.Duration(field.Key, val)
	case time.Time:
		return zap.Time(field.Key, val)
	case error:
		return zap.NamedError(field.Key, val)
	default:
		return zap.Any(field.Key, val)
	}
}

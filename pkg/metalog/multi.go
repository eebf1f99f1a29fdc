package metalog

import "github.com/hyp3rd/hyperrotate"

type multi []hyperrotate.EventSink

// Multi delivers every event to each of sinks in order. Nil sinks are ignored.
func Multi(sinks ...hyperrotate.EventSink) hyperrotate.EventSink {
	filtered := make(multi, 0, len(sinks))

	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}

	switch len(filtered) {
	case 0:
		return hyperrotate.NoopSink{}
	case 1:
		return filtered[0]
	default:
		return filtered
	}
}

func (m multi) Event(level hyperrotate.Level, msg string, fields ...hyperrotate.Field) {
	for _, sink := range m {
		sink.Event(level, msg, fields...)
	}
}

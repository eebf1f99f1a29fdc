package hyperrotate

// NoopSink is an EventSink that discards every event.
type NoopSink struct{}

// NewNoop creates a new NoopSink.
func NewNoop() EventSink {
	return NoopSink{}
}

// Ensure NoopSink implements EventSink interface.
var _ EventSink = NoopSink{}

// Event discards the event.
func (NoopSink) Event(_ Level, _ string, _ ...Field) {}

// OrNoop returns sink, or a NoopSink when sink is nil.
func OrNoop(sink EventSink) EventSink {
	if sink == nil {
		return NoopSink{}
	}

	return sink
}

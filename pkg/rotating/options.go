package rotating

import (
	"time"

	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

// Option customizes a Sink.
type Option func(*Sink)

// WithClock replaces time.Now for rotation decisions, archive names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStore replaces the platform attribute store.
func WithStore(store attrstore.Store) Option {
	return func(s *Sink) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMetricsReporter registers fn to receive a Metrics snapshot after every write,
// rotation, deletion and queue drop.
func WithMetricsReporter(fn func(Metrics)) Option {
	return func(s *Sink) {
		s.reporter = fn
	}
}

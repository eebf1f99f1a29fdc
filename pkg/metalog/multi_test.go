package metalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyp3rd/hyperrotate"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Event(_ hyperrotate.Level, msg string, _ ...hyperrotate.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.msgs)
}

func TestMulti(t *testing.T) {
	first, second := &recorder{}, &recorder{}

	sink := Multi(first, nil, second)
	sink.Event(hyperrotate.InfoLevel, "rotated log file")

	assert.Equal(t, []string{"rotated log file"}, first.msgs)
	assert.Equal(t, []string{"rotated log file"}, second.msgs)
}

func TestMultiCollapses(t *testing.T) {
	single := &recorder{}

	assert.Equal(t, hyperrotate.NoopSink{}, Multi())
	assert.Equal(t, hyperrotate.NoopSink{}, Multi(nil, nil))
	assert.Same(t, single, Multi(nil, single))
}

func TestSampled(t *testing.T) {
	next := &recorder{}
	sink := Sampled(next, SamplingConfig{Initial: 2, Thereafter: 3})

	for range 5 {
		sink.Event(hyperrotate.InfoLevel, "rotated log file")
	}

	// two initial events, then the 5th (every third after the initial two)
	assert.Equal(t, 3, next.count())

	for range 4 {
		sink.Event(hyperrotate.ErrorLevel, "rotating log file failed")
	}

	assert.Equal(t, 7, next.count())
}

func TestSampledPerLevel(t *testing.T) {
	next := &recorder{}
	sink := Sampled(next, SamplingConfig{Initial: 1, Thereafter: 2, PerLevel: true})

	sink.Event(hyperrotate.TraceLevel, "a")
	sink.Event(hyperrotate.TraceLevel, "b")
	sink.Event(hyperrotate.DebugLevel, "c")

	assert.Equal(t, []string{"a", "c"}, next.msgs)
}

func TestSampledDefaults(t *testing.T) {
	next := &recorder{}
	sink := Sampled(next, SamplingConfig{})

	for range DefaultSamplingInitial {
		sink.Event(hyperrotate.DebugLevel, "x")
	}

	sink.Event(hyperrotate.DebugLevel, "x")
	assert.Equal(t, DefaultSamplingInitial, next.count())
}

package metalog

import (
	"sync/atomic"

	"github.com/hyp3rd/hyperrotate"
)

const (
	// DefaultSamplingInitial is the number of events passed before sampling starts.
	DefaultSamplingInitial = 100
	// DefaultSamplingThereafter passes one event out of every N once sampling started.
	DefaultSamplingThereafter = 100
)

// SamplingConfig controls Sampled.
type SamplingConfig struct {
	// Initial events are always passed.
	Initial int
	// Thereafter passes one event out of every Thereafter after Initial.
	Thereafter int
	// PerLevel counts each level separately instead of sharing one counter.
	PerLevel bool
}

type sampler struct {
	next          hyperrotate.EventSink
	perLevel      bool
	initial       uint64
	thereafter    uint64
	globalCounter atomic.Uint64
	levelCounters [hyperrotate.FatalLevel + 1]atomic.Uint64
}

// Sampled thins out the low-severity events reaching next, which keeps a busy sink's
// "rotated log file" notices from flooding the destination. Warnings and errors always pass.
func Sampled(next hyperrotate.EventSink, cfg SamplingConfig) hyperrotate.EventSink {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultSamplingInitial
	}

	if cfg.Thereafter <= 0 {
		cfg.Thereafter = DefaultSamplingThereafter
	}

	return &sampler{
		next:       hyperrotate.OrNoop(next),
		perLevel:   cfg.PerLevel,
		initial:    uint64(cfg.Initial),
		thereafter: uint64(cfg.Thereafter),
	}
}

func (s *sampler) Event(level hyperrotate.Level, msg string, fields ...hyperrotate.Field) {
	if !s.allow(level) {
		return
	}

	s.next.Event(level, msg, fields...)
}

func (s *sampler) allow(level hyperrotate.Level) bool {
	if level >= hyperrotate.WarnLevel {
		return true
	}

	current := s.counter(level).Add(1)
	if current <= s.initial || s.thereafter <= 1 {
		return true
	}

	return (current-s.initial)%s.thereafter == 0
}

func (s *sampler) counter(level hyperrotate.Level) *atomic.Uint64 {
	if s.perLevel && int(level) < len(s.levelCounters) {
		return &s.levelCounters[level]
	}

	return &s.globalCounter
}

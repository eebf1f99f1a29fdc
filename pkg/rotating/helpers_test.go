package rotating

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/hyperrotate"
)

var baseTime = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

// newTickingClock returns a clock that advances by one second on every read, so every
// rotation gets a distinct archive name.
func newTickingClock() *fakeClock {
	return &fakeClock{now: baseTime, tick: time.Second}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(c.tick)

	return now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type recordedEvent struct {
	level  hyperrotate.Level
	msg    string
	fields []hyperrotate.Field
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Event(level hyperrotate.Level, msg string, fields ...hyperrotate.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, recordedEvent{level: level, msg: msg, fields: fields})
}

func (r *eventRecorder) has(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if strings.HasPrefix(event.msg, prefix) {
			return true
		}
	}

	return false
}

func (r *eventRecorder) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, event := range r.events {
		if strings.HasPrefix(event.msg, prefix) {
			n++
		}
	}

	return n
}

type completionRecorder struct {
	mu      sync.Mutex
	results []bool
}

func (c *completionRecorder) record(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = append(c.results, success)
}

func (c *completionRecorder) all() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]bool(nil), c.results...)
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	return info.Size()
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

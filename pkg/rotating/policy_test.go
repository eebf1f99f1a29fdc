package rotating

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyp3rd/hyperrotate"
)

func TestShouldRotate(t *testing.T) {
	now := baseTime

	tests := []struct {
		name       string
		state      State
		thresholds Thresholds
		want       bool
	}{
		{
			name:       "unresolved archive folder never rotates",
			state:      State{Size: 1000, StartTime: now.Add(-time.Hour)},
			thresholds: Thresholds{MaxFileSize: 10, MaxAge: time.Second},
			want:       false,
		},
		{
			name:       "size reached",
			state:      State{Size: 100, StartTime: now},
			thresholds: Thresholds{MaxFileSize: 100, ArchiveFolder: "/a"},
			want:       true,
		},
		{
			name:       "size below threshold and age disabled",
			state:      State{Size: 99, StartTime: now.Add(-time.Hour)},
			thresholds: Thresholds{MaxFileSize: 100, ArchiveFolder: "/a"},
			want:       false,
		},
		{
			name:       "age reached regardless of size",
			state:      State{Size: 1, StartTime: now.Add(-10 * time.Second)},
			thresholds: Thresholds{MaxFileSize: 100, MaxAge: 10 * time.Second, ArchiveFolder: "/a"},
			want:       true,
		},
		{
			name:       "age not reached",
			state:      State{Size: 1, StartTime: now.Add(-9 * time.Second)},
			thresholds: Thresholds{MaxFileSize: 100, MaxAge: 10 * time.Second, ArchiveFolder: "/a"},
			want:       false,
		},
		{
			name:       "unbounded sentinels",
			state:      State{Size: math.MaxUint64 - 1, StartTime: now.Add(-1000 * time.Hour)},
			thresholds: Thresholds{MaxFileSize: math.MaxUint64, ArchiveFolder: "/a"},
			want:       false,
		},
		{
			name:       "raw zero size is unbounded",
			state:      State{Size: 5, StartTime: now},
			thresholds: Thresholds{MaxFileSize: 0, ArchiveFolder: "/a"},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRotate(tt.state, tt.thresholds, now))
		})
	}
}

func TestStateAddAndReset(t *testing.T) {
	var state State

	state.Add(60)
	state.Add(50)
	state.Add(-5)
	assert.Equal(t, uint64(110), state.Size)

	state.Size = math.MaxUint64 - 1
	state.Add(10)
	assert.Equal(t, uint64(math.MaxUint64), state.Size)

	state.Reset(baseTime)
	assert.Zero(t, state.Size)
	assert.Equal(t, baseTime, state.StartTime)
}

func TestThresholdsFromConfig(t *testing.T) {
	cfg := hyperrotate.Config{
		MaxFileSize:     0,
		MaxAge:          500 * time.Millisecond,
		MaxArchiveCount: 3,
		ArchiveFolder:   "archives",
	}

	got := ThresholdsFromConfig(cfg)

	assert.Equal(t, Thresholds{
		MaxFileSize:     hyperrotate.UnboundedFileSize,
		MaxAge:          0,
		MaxArchiveCount: 3,
		ArchiveFolder:   "archives",
	}, got)
}

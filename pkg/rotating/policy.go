package rotating

import (
	"math"
	"time"

	"github.com/hyp3rd/hyperrotate"
)

// unboundedSize mirrors hyperrotate.UnboundedFileSize.
const unboundedSize uint64 = math.MaxUint64

// State is the rotation accounting of the current file.
type State struct {
	// Size is the number of bytes written since the last rotation.
	Size uint64
	// StartTime is when the current file was started.
	StartTime time.Time
}

// Add accounts n more bytes, saturating at the maximum.
func (s *State) Add(n int) {
	if n <= 0 {
		return
	}

	if uint64(n) > math.MaxUint64-s.Size {
		s.Size = math.MaxUint64

		return
	}

	s.Size += uint64(n)
}

// Reset starts a new file at now.
func (s *State) Reset(now time.Time) {
	s.Size = 0
	s.StartTime = now
}

// Thresholds are the limits that drive rotation and retention.
type Thresholds struct {
	// MaxFileSize is the size that triggers rotation; 0 and the unbounded sentinel disable it.
	MaxFileSize uint64
	// MaxAge is the age that triggers rotation; 0 disables it.
	MaxAge time.Duration
	// MaxArchiveCount is the number of archives kept after each rotation.
	MaxArchiveCount uint8
	// ArchiveFolder is the resolved archive destination; empty means not resolved yet.
	ArchiveFolder string
}

// ThresholdsFromConfig extracts the thresholds of cfg. The archive folder is copied as
// configured, unresolved.
func ThresholdsFromConfig(cfg hyperrotate.Config) Thresholds {
	return Thresholds{
		MaxFileSize:     hyperrotate.NormalizeMaxFileSize(cfg.MaxFileSize),
		MaxAge:          hyperrotate.NormalizeMaxAge(cfg.MaxAge),
		MaxArchiveCount: cfg.MaxArchiveCount,
		ArchiveFolder:   cfg.ArchiveFolder,
	}
}

// ShouldRotate reports whether the current file is due for rotation at now.
// The check runs after a write, so the thresholds are ceilings a single large write
// can exceed.
func ShouldRotate(state State, thresholds Thresholds, now time.Time) bool {
	if thresholds.ArchiveFolder == "" {
		return false
	}

	if bounded(thresholds.MaxFileSize) && state.Size >= thresholds.MaxFileSize {
		return true
	}

	if thresholds.MaxAge <= 0 {
		return false
	}

	return now.Sub(state.StartTime) >= thresholds.MaxAge
}

func bounded(size uint64) bool {
	return size != 0 && size != unboundedSize
}

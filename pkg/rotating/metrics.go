package rotating

import (
	"sync/atomic"
)

// Metrics provides insight into the activity of a Sink.
type Metrics struct {
	Writes           uint64
	BytesWritten     uint64
	WriteFailures    uint64
	Rotations        uint64
	RotationFailures uint64
	ArchivesDeleted  uint64
	DeleteFailures   uint64
	QueueDropped     uint64
	QueueDepth       int
}

type counters struct {
	writes           atomic.Uint64
	bytesWritten     atomic.Uint64
	writeFailures    atomic.Uint64
	rotations        atomic.Uint64
	rotationFailures atomic.Uint64
	archivesDeleted  atomic.Uint64
	deleteFailures   atomic.Uint64
	queueDropped     atomic.Uint64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Writes:           c.writes.Load(),
		BytesWritten:     c.bytesWritten.Load(),
		WriteFailures:    c.writeFailures.Load(),
		Rotations:        c.rotations.Load(),
		RotationFailures: c.rotationFailures.Load(),
		ArchivesDeleted:  c.archivesDeleted.Load(),
		DeleteFailures:   c.deleteFailures.Load(),
		QueueDropped:     c.queueDropped.Load(),
	}
}

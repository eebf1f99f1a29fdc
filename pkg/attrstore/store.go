// Package attrstore reads and writes named binary attributes attached to files.
//
// The rotating sink tags every archived file with its owner and archival time so the
// archive directory listing alone is enough to reconstruct the set of archives. On linux
// and darwin the attributes are stored as extended attributes; MemoryStore keeps them in
// process memory for tests and for filesystems without xattr support.
package attrstore

import (
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate/internal/constants"
)

var (
	// ErrNotFound is returned when the file carries no attribute with the requested name.
	ErrNotFound = ewrap.New("attribute not found")

	// ErrUnsupported is returned when the platform or filesystem cannot store attributes.
	ErrUnsupported = ewrap.New("extended attributes not supported")
)

// Store reads and writes named attributes on files.
type Store interface {
	// Get returns the raw value of attribute name on path.
	Get(path, name string) ([]byte, error)
	// Set creates or replaces attribute name on path.
	Set(path, name string, value []byte) error
}

// Forgetter is implemented by stores that keep state outside the file itself and must
// be told when a file is deleted.
type Forgetter interface {
	Forget(path string)
}

// Keys are the attribute names written on archived files.
type Keys struct {
	ArchivedBy string
	ArchivedAt string
}

// KeysFor derives the owner and timestamp attribute names from namespace.
func KeysFor(namespace string) Keys {
	return Keys{
		ArchivedBy: namespace + constants.ArchivedBySuffix,
		ArchivedAt: namespace + constants.ArchivedAtSuffix,
	}
}

// New returns the platform default store.
func New() Store {
	return NewXattrStore()
}

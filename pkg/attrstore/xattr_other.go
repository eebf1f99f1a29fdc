//go:build !linux && !darwin

package attrstore

import "github.com/hyp3rd/ewrap"

// XattrStore reports ErrUnsupported on platforms without extended attribute support.
type XattrStore struct{}

// NewXattrStore creates an XattrStore.
func NewXattrStore() *XattrStore {
	return &XattrStore{}
}

// Get implements Store.
func (*XattrStore) Get(path, name string) ([]byte, error) {
	return nil, ewrap.Wrap(ErrUnsupported, "reading attribute").
		WithMetadata("path", path).
		WithMetadata("name", name)
}

// Set implements Store.
func (*XattrStore) Set(path, name string, _ []byte) error {
	return ewrap.Wrap(ErrUnsupported, "writing attribute").
		WithMetadata("path", path).
		WithMetadata("name", name)
}

var _ Store = (*XattrStore)(nil)

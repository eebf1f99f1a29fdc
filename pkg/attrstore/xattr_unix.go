//go:build linux || darwin

package attrstore

import (
	"errors"

	"github.com/hyp3rd/ewrap"
	"golang.org/x/sys/unix"
)

const initialValueSize = 64

// XattrStore stores attributes as filesystem extended attributes.
type XattrStore struct{}

// NewXattrStore creates an XattrStore.
func NewXattrStore() *XattrStore {
	return &XattrStore{}
}

// Get implements Store.
func (*XattrStore) Get(path, name string) ([]byte, error) {
	buf := make([]byte, initialValueSize)

	for {
		n, err := unix.Getxattr(path, name, buf)
		if err == nil {
			return buf[:n], nil
		}

		if errors.Is(err, unix.ERANGE) {
			size, sizeErr := unix.Getxattr(path, name, nil)
			if sizeErr != nil {
				return nil, wrapErrno(sizeErr, "reading attribute size", path, name)
			}

			buf = make([]byte, size)

			continue
		}

		return nil, wrapErrno(err, "reading attribute", path, name)
	}
}

// Set implements Store.
func (*XattrStore) Set(path, name string, value []byte) error {
	err := unix.Setxattr(path, name, value, 0)
	if err != nil {
		return wrapErrno(err, "writing attribute", path, name)
	}

	return nil
}

func wrapErrno(err error, msg, path, name string) error {
	cause := err

	switch {
	case errors.Is(err, errNoAttr):
		cause = ErrNotFound
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		cause = ErrUnsupported
	}

	wrapped := ewrap.Wrap(cause, msg).
		WithMetadata("path", path).
		WithMetadata("name", name)

	if cause != err {
		wrapped = wrapped.WithMetadata("errno", err.Error())
	}

	return wrapped
}

var _ Store = (*XattrStore)(nil)

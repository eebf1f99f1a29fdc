//go:build linux

package attrstore

import "golang.org/x/sys/unix"

var errNoAttr error = unix.ENODATA

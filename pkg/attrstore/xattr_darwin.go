//go:build darwin

package attrstore

import "golang.org/x/sys/unix"

var errNoAttr error = unix.ENOATTR

//go:build !linux

package utils

import (
	"os"
	"time"
)

// CreationTime returns the modification time of the file; birth time is only read on linux.
func CreationTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}

// Package constants provides module-wide constant values used by the sinks and their
// supporting packages, so attribute keys and timeouts stay consistent across the codebase.
package constants

import "time"

const (
	// DefaultTimeout is the default time a flush or close waits for queued work.
	DefaultTimeout = 5 * time.Second
	// DefaultArchiveDirName is the folder created under the user cache directory when no
	// better archive location is known.
	DefaultArchiveDirName = "hyperrotate"
	// ArchivedBySuffix is appended to the attribute namespace to form the owner key.
	ArchivedBySuffix = ".archived.by"
	// ArchivedAtSuffix is appended to the attribute namespace to form the timestamp key.
	ArchivedAtSuffix = ".archived.at"
	// DirPermissions are used when creating log and archive folders.
	DirPermissions = 0o750
)

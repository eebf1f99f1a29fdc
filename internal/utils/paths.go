// Package utils provides internal utility functions used throughout the rotating sink.
//
// This package contains helpers for splitting log file names, building archive names,
// resolving the archive folder and creating directories. These utilities are primarily for
// internal use and are not intended to be part of the public API.
package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate/internal/constants"
)

// SplitName splits the final element of path into its base name and extension.
// The extension is returned without the leading dot. A leading dot (hidden file) is
// part of the base name, so ".profile" yields (".profile", "").
func SplitName(path string) (base, ext string) {
	name := filepath.Base(path)

	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return strings.TrimSuffix(name, "."), ""
	}

	return name[:idx], name[idx+1:]
}

// ArchiveName builds the archive path <folder>/<base><suffix>.<ext> where suffix is the
// layout formatted at now. No dot is added when ext is empty.
func ArchiveName(folder, base, ext, layout string, now time.Time) string {
	name := base + now.Format(layout)
	if ext != "" {
		name += "." + ext
	}

	return filepath.Join(folder, name)
}

// DefaultArchiveFolder returns the folder used when neither an explicit folder nor the
// directory of the current file is known: the user cache directory, or the system temp
// directory when no cache directory is available.
func DefaultArchiveFolder() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}

	return filepath.Join(base, constants.DefaultArchiveDirName)
}

// ResolveArchiveFolder picks the archive folder: explicit wins, then the directory of
// path, then DefaultArchiveFolder.
func ResolveArchiveFolder(explicit, path string) string {
	if explicit != "" {
		return filepath.Clean(explicit)
	}

	if path != "" {
		return filepath.Dir(path)
	}

	return DefaultArchiveFolder()
}

// EnsureDir creates dir and its parents with constants.DirPermissions.
// An existing directory is left as is.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}

	if strings.ContainsRune(dir, 0) {
		return ewrap.New("directory contains null byte").WithMetadata("path", dir)
	}

	err := os.MkdirAll(dir, constants.DirPermissions)
	if err != nil {
		return ewrap.Wrap(err, "creating directory").WithMetadata("path", dir)
	}

	return nil
}

// Exists reports whether anything is present at path. Errors other than "not exist"
// are treated as present so callers never overwrite an entry they cannot inspect.
func Exists(path string) bool {
	_, err := os.Lstat(path)

	return err == nil || !os.IsNotExist(err)
}

// IsHidden reports whether the final element of path starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

//go:build unix

package fileops

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isCrossDevice reports whether a rename failed because src and dst live on
// different filesystems.
func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// isNotDir reports whether a path component was not a directory.
func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}

//go:build darwin

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Clone creates dst as a copy-on-write clone of src. dst must not exist.
// ErrCloneUnsupported is returned when the volume cannot clone.
func Clone(src, dst string) error {
	err := unix.Clonefile(src, dst, unix.CLONE_NOFOLLOW)
	if err == nil {
		return nil
	}
	for _, errno := range []error{unix.ENOTSUP, unix.EXDEV} {
		if errors.Is(err, errno) {
			return ErrCloneUnsupported
		}
	}
	return err
}

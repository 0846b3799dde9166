// Package platform wraps the OS primitives the merger relies on: a
// kernel-assisted whole-file copy and a rename that never replaces an
// existing name.
package platform

import "errors"

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
	Reflink                  // Linux FICLONE ioctl
	Clonefile                // macOS clonefile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Reflink:
		return "reflink"
	case Clonefile:
		return "clonefile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// ErrCloneUnsupported is returned by Clone when the platform or filesystem
// cannot create a copy-on-write clone.
var ErrCloneUnsupported = errors.New("clone not supported")

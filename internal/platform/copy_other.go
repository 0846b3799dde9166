//go:build !linux

package platform

import "os"

// CopyFile copies src into dst with buffered read/write. On macOS callers
// try Clone first for a copy-on-write copy.
func CopyFile(dst, src *os.File, size int64) (CopyResult, error) {
	preallocate(dst, size)
	return copyReadWrite(dst, src)
}

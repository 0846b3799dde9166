//go:build linux

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile copies size bytes from the start of src into dst, which must be
// empty and positioned at offset zero. It tries a reflink, then
// copy_file_range, then sendfile, falling through on unsupported or
// cross-device errors before settling on plain read/write.
//
//nolint:gosec // G115: fd values are small non-negative integers
func CopyFile(dst, src *os.File, size int64) (CopyResult, error) {
	if size == 0 {
		return CopyResult{Method: ReadWrite}, nil
	}

	err := unix.IoctlFileClone(int(dst.Fd()), int(src.Fd()))
	if err == nil {
		return CopyResult{BytesWritten: size, Method: Reflink}, nil
	}
	if !isFallbackErr(err) {
		return CopyResult{}, err
	}

	preallocate(dst, size)

	result, err := copyFileRange(dst, src, size)
	if err == nil {
		return result, nil
	}
	if result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(dst, src, size)
	if err == nil {
		return result, nil
	}
	if result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	return copyReadWrite(dst, src)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(dst, src *os.File, size int64) (CopyResult, error) {
	var roff, woff int64
	remaining := size

	var total int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(src.Fd()), &roff, int(dst.Fd()), &woff, int(remaining), 0)
		if err != nil {
			return CopyResult{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}
	if total > 0 {
		// Explicit offsets leave the descriptor positions untouched.
		if _, err := dst.Seek(total, 0); err != nil {
			return CopyResult{BytesWritten: total, Method: CopyFileRange}, err
		}
	}

	return CopyResult{BytesWritten: total, Method: CopyFileRange}, nil
}

//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(dst, src *os.File, size int64) (CopyResult, error) {
	var offset int64
	remaining := size

	var total int64
	for remaining > 0 {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), &offset, int(remaining))
		if err != nil {
			return CopyResult{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return CopyResult{BytesWritten: total, Method: Sendfile}, nil
}

// isFallbackErr returns true if err should trigger a fallback to the next
// copy strategy.
func isFallbackErr(err error) bool {
	for _, errno := range []error{
		unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.EOPNOTSUPP, unix.ENOTTY, unix.EBADF,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

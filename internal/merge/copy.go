package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bamsammich/fwt/internal/platform"
)

const compareBufSize = 1 << 20

// tmpSuffix marks files a merge is still writing.
const tmpSuffix = ".fwt-tmp"

// tmpPathFor returns a hidden, unique sibling of dst to write into.
func tmpPathFor(dst string) string {
	dir, base := filepath.Split(dst)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], tmpSuffix))
}

// copyFile writes src to a temporary sibling of dst, syncs it and then
// publishes it under dst without ever replacing an existing file. The
// error matches os.ErrExist when dst appeared in the meantime.
func copyFile(src, dst string, preserveTimes bool) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}

	tmpPath := tmpPathFor(dst)
	globalTmpRegistry.add(tmpPath)
	defer func() {
		globalTmpRegistry.remove(tmpPath)
		_ = os.Remove(tmpPath) // no-op once published
	}()

	err = platform.Clone(src, tmpPath)
	switch {
	case err == nil:
		// Clones carry mode and times with them.
	case errors.Is(err, platform.ErrCloneUnsupported):
		if err := writeTmp(in, tmpPath, info, preserveTimes); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("clone %s: %w", src, err)
	}

	if err := platform.RenameNoReplace(tmpPath, dst); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func writeTmp(in *os.File, tmpPath string, info os.FileInfo, preserveTimes bool) error {
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}

	result, err := platform.CopyFile(out, in, info.Size())
	if err != nil {
		out.Close()
		return fmt.Errorf("copy data %s: %w", in.Name(), err)
	}
	if result.BytesWritten != info.Size() {
		out.Close()
		return fmt.Errorf("copy data %s: wrote %d of %d bytes", in.Name(), result.BytesWritten, info.Size())
	}

	// The umask may have narrowed the create mode.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if preserveTimes {
		if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("set times %s: %w", tmpPath, err)
		}
	}
	return nil
}

// identical reports whether a and b are regular files with byte-for-byte
// equal content.
func identical(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if !ia.Mode().IsRegular() || !ib.Mode().IsRegular() || ia.Size() != ib.Size() {
		return false, nil
	}

	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, compareBufSize)
	bufB := make([]byte, compareBufSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		doneB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

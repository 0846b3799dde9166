package merge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func noTmpFiles(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, filepath.WalkDir(root, func(p string, _ os.DirEntry, err error) error {
		require.NoError(t, err)
		assert.False(t, strings.HasSuffix(p, tmpSuffix), "leftover temp file %s", p)
		return nil
	}))
}

func TestRun_CopiesMissingFiles(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "target")
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")
	writeFile(t, filepath.Join(src, "sub", "deep", "b.txt"), "beta")
	require.NoError(t, os.Chmod(filepath.Join(src, "a.txt"), 0o600))

	rec := &event.Recorder{}
	res, err := Run(context.Background(), Config{Source: src, Target: dst, Sink: rec})
	require.NoError(t, err)

	assert.Equal(t, Result{Copied: 2, Bytes: 9}, res)
	assert.Equal(t, "alpha", readFile(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, "beta", readFile(t, filepath.Join(dst, "sub", "deep", "b.txt")))

	info, err := os.Stat(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Len(t, rec.OfType(event.FileCopied), 2)
	noTmpFiles(t, dst)
}

func TestRun_SkipsIdentical(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "same.txt"), "content")
	writeFile(t, filepath.Join(dst, "same.txt"), "content")

	res, err := Run(context.Background(), Config{Source: src, Target: dst})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Copied)
}

func TestRun_ConflictNaming(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "img.jpg"), "new")
	writeFile(t, filepath.Join(dst, "img.jpg"), "old")

	res, err := Run(context.Background(), Config{Source: src, Target: dst})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, "old", readFile(t, filepath.Join(dst, "img.jpg")), "existing file is never overwritten")
	assert.Equal(t, "new", readFile(t, filepath.Join(dst, "img (Conflict 1).jpg")))

	// A second, different source file lands on the next conflict name.
	writeFile(t, filepath.Join(src, "img.jpg"), "newer")
	res, err = Run(context.Background(), Config{Source: src, Target: dst})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, "newer", readFile(t, filepath.Join(dst, "img (Conflict 2).jpg")))

	// Matching an earlier conflict copy counts as a skip.
	writeFile(t, filepath.Join(src, "img.jpg"), "new")
	res, err = Run(context.Background(), Config{Source: src, Target: dst})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
}

func TestRun_ConflictWithDirectory(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "notes"), "text")
	require.NoError(t, os.Mkdir(filepath.Join(dst, "notes"), 0o755))

	res, err := Run(context.Background(), Config{Source: src, Target: dst})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, "text", readFile(t, filepath.Join(dst, "notes (Conflict 1)")))
}

func TestRun_DryRun(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "target")
	writeFile(t, filepath.Join(src, "a"), "a")
	writeFile(t, filepath.Join(src, "d", "b"), "b")

	rec := &event.Recorder{}
	res, err := Run(context.Background(), Config{Source: src, Target: dst, DryRun: true, Sink: rec})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Copied)
	assert.NoDirExists(t, dst)
	assert.Len(t, rec.OfType(event.DirCreated), 2)
}

func TestRun_Filter(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), "k")
	writeFile(t, filepath.Join(src, "skip.tmp"), "s")
	writeFile(t, filepath.Join(src, "cache", "x"), "x")

	f := filter.NewChain()
	require.NoError(t, f.Add("*.tmp"))
	require.NoError(t, f.Add("cache/"))

	res, err := Run(context.Background(), Config{Source: src, Target: dst, Filter: f})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.FileExists(t, filepath.Join(dst, "keep.txt"))
	assert.NoFileExists(t, filepath.Join(dst, "skip.tmp"))
	assert.NoDirExists(t, filepath.Join(dst, "cache"))
}

func TestRun_PreserveTimes(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	p := filepath.Join(src, "old.txt")
	writeFile(t, p, "x")
	mtime := time.Date(2019, 6, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(p, mtime, mtime))

	_, err := Run(context.Background(), Config{Source: src, Target: dst, PreserveTimes: true})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "old.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "got %v", info.ModTime())
}

func TestRun_FailedSubtreeDoesNotStopSiblings(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "blocked", "f"), "f")
	writeFile(t, filepath.Join(src, "open", "g"), "g")
	writeFile(t, filepath.Join(dst, "blocked"), "a file where a directory belongs")

	rec := &event.Recorder{}
	res, err := Run(context.Background(), Config{Source: src, Target: dst, Sink: rec})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Copied)
	assert.FileExists(t, filepath.Join(dst, "open", "g"))
	assert.Len(t, rec.OfType(event.FileFailed), 1)
}

func TestRun_InvalidArguments(t *testing.T) {
	src := t.TempDir()
	_, err := Run(context.Background(), Config{Source: src, Target: filepath.Join(src, "inner")})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	f := filepath.Join(t.TempDir(), "file")
	writeFile(t, f, "x")
	_, err = Run(context.Background(), Config{Source: f, Target: t.TempDir()})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(context.Background(), Config{Source: filepath.Join(src, "nope"), Target: t.TempDir()})
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestRun_Cancelled(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{Source: src, Target: dst})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dst, "a"))
}

func TestCopyFileRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "incoming")
	writeFile(t, dst, "resident")

	_, err := copyFile(src, dst, false)
	require.ErrorIs(t, err, os.ErrExist)
	assert.Equal(t, "resident", readFile(t, dst))
	noTmpFiles(t, dir)
}

func TestCleanupTmpFiles(t *testing.T) {
	dir := t.TempDir()
	tmp := tmpPathFor(filepath.Join(dir, "file"))
	writeFile(t, tmp, "partial")
	globalTmpRegistry.add(tmp)

	CleanupTmpFiles()
	assert.NoFileExists(t, tmp)
}

func TestRun_StaleTmpFromInterruptedCopy(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "photo.jpg"), "complete")

	// An interrupted copy leaves only its hidden sibling behind.
	final := filepath.Join(dst, "photo.jpg")
	stale := tmpPathFor(final)
	writeFile(t, stale, "comp")
	globalTmpRegistry.add(stale)
	assert.NoFileExists(t, final)

	rec := &event.Recorder{}
	res, err := Run(context.Background(), Config{Source: src, Target: dst, Sink: rec})
	require.NoError(t, err)
	assert.Equal(t, Result{Copied: 1, Bytes: 8}, res)
	assert.Equal(t, "complete", readFile(t, final))

	copied := rec.OfType(event.FileCopied)
	require.Len(t, copied, 1)
	assert.Equal(t, final, copied[0].Other)
	assert.Empty(t, rec.OfType(event.FileFailed))
	assert.FileExists(t, stale, "a merge never touches tmp files it did not write")

	CleanupTmpFiles()
	assert.NoFileExists(t, stale)
	noTmpFiles(t, dst)
}

func TestIdentical(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	big := strings.Repeat("x", compareBufSize+10)
	writeFile(t, a, big)
	writeFile(t, b, big)
	writeFile(t, c, big[:len(big)-1]+"y")

	same, err := identical(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = identical(a, c)
	require.NoError(t, err)
	assert.False(t, same)

	same, err = identical(a, dir)
	require.NoError(t, err)
	assert.False(t, same)
}

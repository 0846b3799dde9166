package dupes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/hashcache"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func openCache(t *testing.T) *hashcache.Cache {
	t.Helper()
	c, err := hashcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func run(t *testing.T, f *filter.Chain, roots ...string) (Result, *event.Recorder) {
	t.Helper()
	rec := &event.Recorder{}
	res, err := Run(context.Background(), Config{Roots: roots, Index: openCache(t), Filter: f, Sink: rec})
	require.NoError(t, err)
	return res, rec
}

func TestRun_DuplicateSets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one", "x.txt"), "same")
	writeFile(t, filepath.Join(root, "two", "y.txt"), "same")
	writeFile(t, filepath.Join(root, "two", "z.txt"), "unique")

	res, rec := run(t, nil, root)
	require.Len(t, res.Sets, 1)
	assert.Equal(t, []string{
		filepath.Join(root, "one", "x.txt"),
		filepath.Join(root, "two", "y.txt"),
	}, res.Sets[0].Paths)
	assert.Equal(t, int64(4), res.Sets[0].Size)
	assert.Equal(t, int64(4), res.WastedBytes())
	assert.Len(t, rec.OfType(event.DuplicateSet), 1)

	// two holds a unique file, one is fully duplicated.
	assert.Equal(t, []string{filepath.Join(root, "one")}, res.Dirs)
}

func TestRun_DuplicatesOnlyInsideDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "D", "a"), "twin")
	writeFile(t, filepath.Join(root, "D", "b"), "twin")
	writeFile(t, filepath.Join(root, "other"), "unique")

	res, _ := run(t, nil, root)
	assert.Len(t, res.Sets, 1)
	assert.Empty(t, res.Dirs, "copies that live only inside D do not make D redundant")
}

func TestRun_NestedMinimization(t *testing.T) {
	r, s := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(r, "a", "x"), "X")
	writeFile(t, filepath.Join(r, "a", "b", "y"), "Y")
	writeFile(t, filepath.Join(r, "keep"), "only here")
	writeFile(t, filepath.Join(s, "x"), "X")
	writeFile(t, filepath.Join(s, "y"), "Y")

	res, rec := run(t, nil, r, s)
	assert.Equal(t, []string{filepath.Join(r, "a"), s}, res.Dirs)
	assert.NotContains(t, res.Dirs, filepath.Join(r, "a", "b"))
	assert.Len(t, rec.OfType(event.DuplicateDir), 2)
}

func TestRun_FilelessParentOfMirroredChildren(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p", "m1", "x"), "mirror")
	writeFile(t, filepath.Join(root, "p", "m2", "x"), "mirror")
	writeFile(t, filepath.Join(root, "u"), "unique")

	res, _ := run(t, nil, root)
	assert.Equal(t, []string{filepath.Join(root, "p")}, res.Dirs)
}

func TestRun_ParentReportedOverInternallyDuplicatedChildren(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "D", "a"), "A")
	writeFile(t, filepath.Join(root, "E", "a"), "A")
	writeFile(t, filepath.Join(root, "D", "S", "b"), "B")
	writeFile(t, filepath.Join(root, "D", "T", "b"), "B")
	writeFile(t, filepath.Join(root, "u"), "unique")

	res, rec := run(t, nil, root)
	assert.Equal(t, []string{
		filepath.Join(root, "D"),
		filepath.Join(root, "E"),
	}, res.Dirs)
	assert.Len(t, rec.OfType(event.DuplicateDir), 2)
}

func TestRun_FilelessParentOfDuplicatedChildren(t *testing.T) {
	r, s := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(r, "album", "2019", "a.jpg"), "A")
	writeFile(t, filepath.Join(r, "album", "2020", "b.jpg"), "B")
	writeFile(t, filepath.Join(r, "notes.txt"), "unique")
	writeFile(t, filepath.Join(s, "a.jpg"), "A")
	writeFile(t, filepath.Join(s, "b.jpg"), "B")
	writeFile(t, filepath.Join(s, "extra.jpg"), "E")

	res, _ := run(t, nil, r, s)
	assert.Equal(t, []string{filepath.Join(r, "album")}, res.Dirs)
}

func TestRun_ExcludedFilesDoNotBlock(t *testing.T) {
	r, s := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(r, "d", "photo.jpg"), "P")
	writeFile(t, filepath.Join(r, "d", "Thumbs.db"), "thumbs")
	writeFile(t, filepath.Join(r, "solo"), "solo")
	writeFile(t, filepath.Join(s, "photo.jpg"), "P")
	writeFile(t, filepath.Join(s, "solo2"), "solo2")

	res, _ := run(t, nil, r, s)
	assert.Empty(t, res.Dirs)

	f := filter.NewChain()
	require.NoError(t, f.Add("Thumbs.db"))
	res, _ = run(t, f, r, s)
	assert.Equal(t, []string{filepath.Join(r, "d")}, res.Dirs)
}

func TestRun_NestedRootsIndexedOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "f"), "f")

	res, _ := run(t, nil, root, filepath.Join(root, "sub"))
	assert.Empty(t, res.Sets)
}

func TestRun_InvalidArguments(t *testing.T) {
	_, err := Run(context.Background(), Config{Index: openCache(t)})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(context.Background(), Config{Roots: []string{t.TempDir()}})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(context.Background(), Config{Roots: []string{filepath.Join(t.TempDir(), "nope")}, Index: openCache(t)})
	require.ErrorIs(t, err, errs.ErrIO)
}

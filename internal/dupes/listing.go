package dupes

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

// listingCacheSize bounds how many directory listings are kept between
// the candidate and closure phases.
const listingCacheSize = 4096

type fileEntry struct {
	path string
	size int64
}

// listing is the part of a directory read the closure needs: regular files
// and subdirectories. Symlinks and special files are left out.
type listing struct {
	files   []fileEntry
	subdirs []string
	err     error
}

type lister struct {
	c *lru.Cache
}

func newLister() (*lister, error) {
	c, err := lru.New(listingCacheSize)
	if err != nil {
		return nil, err
	}
	return &lister{c: c}, nil
}

func (l *lister) list(dir string) *listing {
	if got, ok := l.c.Get(dir); ok {
		return got.(*listing) //nolint:errcheck // cache only holds *listing
	}

	ls := &listing{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		ls.err = err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			ls.subdirs = append(ls.subdirs, p)
		case e.Type().IsRegular():
			info, err := e.Info()
			if err != nil {
				ls.err = err
				continue
			}
			ls.files = append(ls.files, fileEntry{path: p, size: info.Size()})
		}
	}
	l.c.Add(dir, ls)
	return ls
}

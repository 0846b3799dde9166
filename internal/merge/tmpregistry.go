package merge

import (
	"os"
	"sync"
)

// tmpRegistry tracks in-progress temporary files so an interrupted merge
// can remove them before exiting.
type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

var globalTmpRegistry = &tmpRegistry{}

func (r *tmpRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *tmpRegistry) drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = nil
	return paths
}

// CleanupTmpFiles removes every temporary file a running merge has not
// yet published. The CLI calls it from its signal handler.
func CleanupTmpFiles() {
	for _, p := range globalTmpRegistry.drain() {
		_ = os.Remove(p)
	}
}

package engine

import (
	"os"
	"sync"
)

// globalTmpRegistry tracks the temporary files created by cross-device moves
// so an interrupted run can remove them on the way out.
var globalTmpRegistry = &tmpRegistry{}

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

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

// RegisterTmp records a partially written move target.
func RegisterTmp(path string) { globalTmpRegistry.add(path) }

// DeregisterTmp forgets a move target once it has been renamed into place or
// removed.
func DeregisterTmp(path string) { globalTmpRegistry.remove(path) }

// CleanupTmpFiles removes every partially written move target still
// registered and returns how many were removed.
func CleanupTmpFiles() int {
	removed := 0
	for _, p := range globalTmpRegistry.drain() {
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed
}

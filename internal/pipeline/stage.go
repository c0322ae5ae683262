package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// staging holds the files steps generate for one source file in memory.
// They reach the real filesystem only once the rewrite is known to be good.
type staging struct {
	billy.Filesystem

	mu    sync.Mutex
	paths []string
	seen  map[string]bool
}

func newStaging() *staging {
	return &staging{Filesystem: memfs.New(), seen: make(map[string]bool)}
}

func (s *staging) Create(name string) (billy.File, error) {
	f, err := s.Filesystem.Create(name)
	if err == nil {
		s.track(name)
	}
	return f, err
}

func (s *staging) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := s.Filesystem.OpenFile(name, flag, perm)
	if err == nil && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		s.track(name)
	}
	return f, err
}

func (s *staging) track(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seen[name] {
		s.seen[name] = true
		s.paths = append(s.paths, name)
	}
}

// flush copies the staged files to fs. It returns the paths that did not
// exist on fs before, so a caller can take them back.
func (s *staging) flush(fs billy.Filesystem) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created []string
	for _, p := range s.paths {
		data, err := util.ReadFile(s.Filesystem, p)
		if err != nil {
			return created, fmt.Errorf("read staged %s: %w", p, err)
		}
		if _, err := fs.Stat(p); errors.Is(err, os.ErrNotExist) {
			created = append(created, p)
		}
		if err := fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return created, fmt.Errorf("create dir for %s: %w", p, err)
		}
		if err := util.WriteFile(fs, p, data, 0o644); err != nil {
			return created, fmt.Errorf("write %s: %w", p, err)
		}
	}
	return created, nil
}

func discard(fs billy.Filesystem, paths []string) {
	for _, p := range paths {
		_ = fs.Remove(p) // best-effort cleanup
	}
}

// Package writeback writes rewritten sources back to disk and checks that a
// rewrite left the frontmatter parseable.
package writeback

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Replace overwrites path with content. The write is atomic: content is
// written to a temp file in the same directory first, then renamed.
func Replace(fs billy.Filesystem, path string, content []byte) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	// Atomic write: temp file in same dir, then rename
	tmp, err := util.TempFile(fs, filepath.Dir(path), ".astro-html-helper-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	// Preserve original file permissions
	if ch, ok := fs.(billy.Change); ok {
		_ = ch.Chmod(tmpName, info.Mode()) // best-effort permission sync
	}

	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// Package assets fetches remote media into a local directory and computes the
// relative import paths that reference them.
package assets

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	fallbackName = "image"
	fallbackExt  = ".jpg"
)

// IsRemote reports whether rawURL is an absolute http or https URL.
func IsRemote(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LocalFilename derives the on-disk name for rawURL: the last path segment
// with its extension, ".jpg" when it has none. The query string is ignored.
func LocalFilename(rawURL string) string {
	name := fallbackName
	if u, err := url.Parse(rawURL); err == nil {
		p := u.EscapedPath()
		if seg := p[strings.LastIndex(p, "/")+1:]; seg != "" && seg != "." && seg != ".." {
			name = seg
		}
	}
	if path.Ext(name) == "" || path.Ext(name) == "." {
		name = strings.TrimSuffix(name, ".") + fallbackExt
	}
	return name
}

// RelativeImportPath returns the module-style path from fromDir to target,
// always starting with "./" or "../" and using forward slashes.
func RelativeImportPath(target, fromDir string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		absTarget, errT := filepath.Abs(target)
		absFrom, errF := filepath.Abs(fromDir)
		if errT == nil && errF == nil {
			rel, err = filepath.Rel(absFrom, absTarget)
		}
	}
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "./") || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}

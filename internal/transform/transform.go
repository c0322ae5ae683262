// Package transform implements the rewrites applied to a parsed Astro
// document: Netlify form markup, astro:assets components, src extraction and
// inline svg extraction.
package transform

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/astro-html-helper/internal/assets"
	"github.com/agentic-research/astro-html-helper/internal/frontmatter"
	"github.com/agentic-research/astro-html-helper/internal/markup"
)

// Env is the per-file context a transform runs with.
type Env struct {
	// Path is the source file being rewritten. Empty when unknown.
	Path string
	// FS receives generated files.
	FS billy.Filesystem
	// ImageDir enables downloading remote images into that directory.
	ImageDir   string
	Downloader assets.Downloader
	Logger     *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Func rewrites doc in place and reports whether it changed anything.
type Func func(ctx context.Context, doc *markup.Document, env Env) (bool, error)

// Text parses src, applies fn and renders the result. src is returned
// byte-for-byte when fn changes nothing.
func Text(ctx context.Context, src string, fn Func, env Env) (string, error) {
	doc, err := markup.Parse(src)
	if err != nil {
		return src, err
	}
	changed, err := fn(ctx, doc, env)
	if err != nil {
		return src, err
	}
	if !changed {
		return src, nil
	}
	return doc.String(), nil
}

// recoverable reports whether a frontmatter edit failed in a way that leaves
// the text intact and should only be logged.
func recoverable(err error) bool {
	return errors.Is(err, frontmatter.ErrNoNamedImports) ||
		errors.Is(err, frontmatter.ErrMalformedImport) ||
		errors.Is(err, frontmatter.ErrAlreadyDeclared)
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// jsString quotes s as a double-quoted JavaScript string literal.
func jsString(s string) string {
	return `"` + jsEscaper.Replace(s) + `"`
}

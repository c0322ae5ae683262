// Package pipeline threads one Astro file through the selected rewrites and
// writes the result back, and runs that over files and directory trees.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/astro-html-helper/internal/markup"
	"github.com/agentic-research/astro-html-helper/internal/transform"
	"github.com/agentic-research/astro-html-helper/internal/writeback"
)

// ErrInvalidRewrite is returned by Write when the rewritten frontmatter no
// longer parses although the original did.
var ErrInvalidRewrite = errors.New("rewrite produced invalid frontmatter")

// Chain holds one parsed file while steps run over it. The first failing
// step stops the chain; later Then calls are no-ops.
type Chain struct {
	fs       billy.Filesystem
	path     string
	original string
	doc      *markup.Document
	env      transform.Env
	staged   *staging

	changed []string
	err     error
}

// Load reads and parses path. env.Path is set to path. Without env.FS, files
// the steps generate are held back and written next to path by Write.
func Load(fs billy.Filesystem, path string, env transform.Env) (*Chain, error) {
	raw, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := markup.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c := &Chain{fs: fs, path: path, original: string(raw), doc: doc}
	env.Path = path
	if env.FS == nil {
		c.staged = newStaging()
		env.FS = c.staged
	}
	c.env = env
	return c, nil
}

// Then applies fn to the tree.
func (c *Chain) Then(ctx context.Context, name string, fn transform.Func) *Chain {
	if c.err != nil {
		return c
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return c
	}
	changed, err := fn(ctx, c.doc, c.env)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
		return c
	}
	if changed {
		c.changed = append(c.changed, name)
	}
	return c
}

// Changed lists the steps that modified the tree, in order.
func (c *Chain) Changed() []string { return c.changed }

func (c *Chain) Err() error { return c.err }

// Text renders the current tree. The original bytes are returned when no
// step changed anything.
func (c *Chain) Text() (string, error) {
	if c.err != nil {
		return c.original, c.err
	}
	if len(c.changed) == 0 {
		return c.original, nil
	}
	return c.doc.String(), nil
}

// Check refuses a rewrite that breaks frontmatter which parsed before.
func (c *Chain) Check() error {
	text, err := c.Text()
	if err != nil || len(c.changed) == 0 {
		return err
	}
	if writeback.Validate([]byte(c.original), c.path) != nil {
		return nil
	}
	if err := writeback.Validate([]byte(text), c.path); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRewrite, err)
	}
	return nil
}

// Write replaces the file with the rewritten text, after writing any files
// the steps generated. It reports whether the file was written; an unchanged
// tree leaves the file alone. A refused or failed rewrite leaves no
// generated files behind.
func (c *Chain) Write() (bool, error) {
	if err := c.Check(); err != nil {
		return false, err
	}
	if len(c.changed) == 0 {
		return false, nil
	}
	text, _ := c.Text()
	if text == c.original {
		return false, nil
	}
	var created []string
	if c.staged != nil {
		var err error
		if created, err = c.staged.flush(c.fs); err != nil {
			discard(c.fs, created)
			return false, err
		}
	}
	if err := writeback.Replace(c.fs, c.path, []byte(text)); err != nil {
		discard(c.fs, created)
		return false, err
	}
	return true, nil
}

package transform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/astro-html-helper/internal/frontmatter"
	"github.com/agentic-research/astro-html-helper/internal/ident"
	"github.com/agentic-research/astro-html-helper/internal/markup"
)

type extractedSVG struct {
	filename  string
	component string
	content   string
}

// ExtractSVGs moves every outermost inline <svg> into its own file next to
// the source file and renders it through a generated import instead. It is
// a no-op when the source path is unknown.
func ExtractSVGs(_ context.Context, doc *markup.Document, env Env) (bool, error) {
	if env.Path == "" || env.FS == nil {
		return false, nil
	}

	var bound map[string]string
	if fm := doc.Frontmatter(); fm != nil {
		var err error
		if bound, err = frontmatter.NewBlock(fm.Value).Bindings(); err != nil {
			return false, err
		}
	}

	var svgs []extractedSVG
	counter := 0
	markup.Elements(doc, func(c *markup.Cursor, el *markup.Element) {
		if !el.Is(markup.KindElement, "svg") {
			return
		}
		counter++
		s := extractedSVG{content: markup.Render(el)}
		if id := el.Attr("id"); id != nil && id.IsLiteral() && ident.SVGFilename(id.Value) != "" {
			s.filename = ident.SVGFilename(id.Value)
			s.component = ident.ComponentName(id.Value)
		} else {
			// Counter names from an earlier run stay bound to their files.
			for {
				s.filename, s.component = ident.CounterNames(counter)
				if _, taken := bound[s.component]; !taken {
					break
				}
				counter++
			}
		}
		svgs = append(svgs, s)
		c.Replace(markup.NewComponent(s.component))
	})
	if len(svgs) == 0 {
		return false, nil
	}

	dir := filepath.Dir(env.Path)
	if err := env.FS.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create svg dir %s: %w", dir, err)
	}
	for _, s := range svgs {
		target := filepath.Join(dir, s.filename)
		if err := util.WriteFile(env.FS, target, []byte(s.content), 0o644); err != nil {
			return false, fmt.Errorf("write svg %s: %w", target, err)
		}
		env.logger().Debug("extracted svg", "path", env.Path, "file", target, "component", s.component)
	}

	fm := doc.EnsureFrontmatter()
	block := frontmatter.NewBlock(fm.Value)
	for _, s := range svgs {
		stmt := fmt.Sprintf("import %s from %s;", s.component, jsString("./"+s.filename))
		if _, err := block.EnsureStatement(s.component, stmt); err != nil {
			if !errors.Is(err, frontmatter.ErrAlreadyDeclared) {
				return false, err
			}
			env.logger().Warn("svg component already declared", "path", env.Path, "name", s.component)
		}
	}
	block.Terminate()
	fm.Value = block.String()
	return true, nil
}

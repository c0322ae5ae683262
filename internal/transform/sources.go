package transform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentic-research/astro-html-helper/internal/assets"
	"github.com/agentic-research/astro-html-helper/internal/frontmatter"
	"github.com/agentic-research/astro-html-helper/internal/ident"
	"github.com/agentic-research/astro-html-helper/internal/markup"
)

// binding ties a generated identifier to the URL it replaced.
type binding struct {
	name string
	url  string
	// importPath is set when the URL was downloaded.
	importPath string
}

func (b *binding) statement() string {
	if b.importPath != "" {
		return fmt.Sprintf("import %s from %s;", b.name, jsString(b.importPath))
	}
	return fmt.Sprintf("const %s = %s;", b.name, jsString(b.url))
}

// ExtractSources replaces literal src values on Picture, Image, img and
// source with identifiers bound in the frontmatter. With an image directory
// configured, remote URLs are downloaded and imported instead; a failed
// download falls back to a const binding.
func ExtractSources(ctx context.Context, doc *markup.Document, env Env) (bool, error) {
	var (
		order []string
		attrs = make(map[string][]*markup.Attribute)
	)
	markup.Elements(doc, func(_ *markup.Cursor, el *markup.Element) {
		if !holdsSrc(el) {
			return
		}
		src := el.Attr("src")
		if src == nil || !src.IsLiteral() {
			return
		}
		if _, seen := attrs[src.Value]; !seen {
			order = append(order, src.Value)
		}
		attrs[src.Value] = append(attrs[src.Value], src)
	})
	if len(order) == 0 {
		return false, nil
	}

	fm := doc.EnsureFrontmatter()
	block := frontmatter.NewBlock(fm.Value)
	bound, err := block.Bindings()
	if err != nil {
		return false, err
	}

	download := env.ImageDir != "" && env.Downloader != nil
	fromDir := "."
	if env.Path != "" {
		fromDir = filepath.Dir(env.Path)
	}

	// Names in expression code may be callback parameters that would
	// shadow a frontmatter binding.
	taken := codeNames(doc)
	byName := make(map[string]*binding)
	bindings := make([]*binding, 0, len(order))
	for _, u := range order {
		b := &binding{url: u}
		base := ident.VariableName(u)
		if env.ImageDir != "" && assets.IsRemote(u) {
			base = ident.ImportName(u)
			if download {
				local, err := env.Downloader.Download(ctx, u, env.ImageDir)
				if err != nil {
					if ctx.Err() != nil {
						return false, ctx.Err()
					}
					env.logger().Warn("download failed, keeping url", "path", env.Path, "url", u, "error", err)
				} else {
					b.importPath = assets.RelativeImportPath(local, fromDir)
				}
			}
		}
		b.name = allocate(base, b, taken, bound)
		taken[b.name] = true
		byName[b.name] = b
		bindings = append(bindings, b)

		for _, a := range attrs[u] {
			a.Kind = markup.AttrExpression
			a.Value = b.name
			a.Quote = 0
		}
	}

	if download {
		stripDownloadedSizes(doc, byName)
	}

	for _, b := range bindings {
		if _, err := block.EnsureStatement(b.name, b.statement()); err != nil {
			if !errors.Is(err, frontmatter.ErrAlreadyDeclared) {
				return false, err
			}
			env.logger().Warn("binding already declared", "path", env.Path, "name", b.name)
		}
	}
	block.Terminate()
	fm.Value = block.String()
	return true, nil
}

// allocate picks the first of base, base2, base3, ... that no other URL in
// this run uses and that the frontmatter either leaves free or already binds
// with the same statement.
func allocate(base string, b *binding, taken map[string]bool, bound map[string]string) string {
	for n := 1; ; n++ {
		name := base
		if n > 1 {
			name = base + strconv.Itoa(n)
		}
		if taken[name] {
			continue
		}
		b.name = name
		if stmt, ok := bound[name]; ok && stmt != b.statement() {
			continue
		}
		return name
	}
}

// codeNames collects the identifiers written in the code of markup
// expressions.
func codeNames(doc *markup.Document) map[string]bool {
	names := make(map[string]bool)
	markup.Walk(doc, func(c *markup.Cursor) {
		expr, ok := c.Node.(*markup.Expression)
		if !ok {
			return
		}
		for _, child := range expr.Children {
			code, ok := child.(*markup.Text)
			if !ok {
				continue
			}
			for _, word := range strings.FieldsFunc(code.Value, notIdentRune) {
				if ident.Valid(word) {
					names[word] = true
				}
			}
		}
	})
	return names
}

func notIdentRune(r rune) bool {
	return !(r == '_' || r == '$' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

func holdsSrc(el *markup.Element) bool {
	switch el.Kind {
	case markup.KindComponent:
		return el.Name == "Picture" || el.Name == "Image"
	case markup.KindElement:
		return el.Name == "img" || el.Name == "source"
	}
	return false
}

// stripDownloadedSizes removes width and height from image nodes whose
// downloaded asset landed under a src directory. SVGs keep their sizes.
func stripDownloadedSizes(doc *markup.Document, byName map[string]*binding) {
	downloaded := func(a *markup.Attribute) *binding {
		if a == nil || a.Kind != markup.AttrExpression {
			return nil
		}
		if b := byName[a.Value]; b != nil && b.importPath != "" {
			return b
		}
		return nil
	}

	markup.Elements(doc, func(_ *markup.Cursor, el *markup.Element) {
		var target *binding
		switch {
		case el.Is(markup.KindComponent, "Picture"), el.Is(markup.KindComponent, "Image"),
			el.Is(markup.KindElement, "img"):
			target = downloaded(el.Attr("src"))
		case el.Is(markup.KindElement, "picture"):
			markup.Elements(el, func(_ *markup.Cursor, child *markup.Element) {
				if child.Is(markup.KindElement, "source") || child.Is(markup.KindElement, "img") {
					if b := downloaded(child.Attr("src")); b != nil {
						target = b
					}
				}
			})
		}
		if target == nil {
			return
		}
		if strings.Contains(target.importPath, "/src/") && !isSVG(target.url) {
			el.RemoveAttrs("width", "height")
		}
	})
}

func isSVG(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".svg")
}

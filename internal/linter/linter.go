// Package linter reports problems in Astro sources that would break or
// defeat the rewrites: unparseable markup or frontmatter, duplicate
// frontmatter bindings and components used without an import.
package linter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/agentic-research/astro-html-helper/internal/frontmatter"
	"github.com/agentic-research/astro-html-helper/internal/markup"
	"github.com/agentic-research/astro-html-helper/internal/writeback"
)

type Diagnostic struct {
	Rule    string
	Message string
	Line    uint32
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (%s)", d.Line+1, d.Message, d.Rule)
}

// Options selects optional rule sets.
type Options struct {
	// Document enables the full-page checks: doctype and html, head and
	// body elements.
	Document bool
}

// builtins are components Astro provides without an import.
var builtins = map[string]bool{
	"Fragment": true,
	"Astro":    true,
}

// Lint checks an Astro source. The file path is only used in messages.
func Lint(content []byte, filePath string, opts Options) ([]Diagnostic, error) {
	src := string(content)
	doc, err := markup.Parse(src)
	if err != nil {
		var se *markup.SyntaxError
		if errors.As(err, &se) {
			return []Diagnostic{{
				Rule:    "markup-syntax",
				Message: se.Message,
				Line:    uint32(se.Line - 1),
			}}, nil
		}
		return nil, err
	}

	var diags []Diagnostic
	for _, ve := range writeback.ASTErrors(content, filePath) {
		diags = append(diags, Diagnostic{
			Rule:    "frontmatter-syntax",
			Message: ve.Message,
			Line:    ve.Line,
		})
	}

	fmLine := frontmatterLine(doc)
	var bound map[string]bool
	if fm := doc.Frontmatter(); fm != nil {
		stmts, err := frontmatter.Statements(fm.Value)
		if err != nil {
			return nil, err
		}
		bound = make(map[string]bool)
		for _, st := range stmts {
			for _, name := range st.Names {
				if bound[name] {
					diags = append(diags, Diagnostic{
						Rule:    "duplicate-binding",
						Message: fmt.Sprintf("%q is declared more than once", name),
						Line:    fmLine + uint32(strings.Count(fm.Value[:st.Start], "\n")),
					})
				}
				bound[name] = true
			}
		}
	}

	diags = append(diags, unimported(doc, bound)...)

	if opts.Document {
		diags = append(diags, documentStructure(body(doc))...)
	}

	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Line < diags[j].Line })
	return diags, nil
}

// frontmatterLine returns the 0-indexed line of the opening fence.
func frontmatterLine(doc *markup.Document) uint32 {
	var line uint32
	for _, c := range doc.Children {
		t, ok := c.(*markup.Text)
		if !ok {
			break
		}
		line += uint32(strings.Count(t.Value, "\n"))
	}
	return line
}

// unimported reports components whose root identifier is not bound in the
// frontmatter. Lines are not tracked for markup nodes, so these point at the
// frontmatter fence.
func unimported(doc *markup.Document, bound map[string]bool) []Diagnostic {
	seen := make(map[string]bool)
	var diags []Diagnostic
	markup.Elements(doc, func(_ *markup.Cursor, el *markup.Element) {
		if el.Kind != markup.KindComponent {
			return
		}
		root, _, _ := strings.Cut(el.Name, ".")
		if root == "" || builtins[root] || bound[root] || seen[root] {
			return
		}
		seen[root] = true
		diags = append(diags, Diagnostic{
			Rule:    "unimported-component",
			Message: fmt.Sprintf("<%s> is used but %s is not imported", el.Name, root),
			Line:    frontmatterLine(doc),
		})
	})
	return diags
}

// body renders the document without its frontmatter and reports the line
// offset of the first rendered byte.
func body(doc *markup.Document) (string, uint32) {
	var b strings.Builder
	var offset uint32
	past := doc.Frontmatter() == nil
	for _, c := range doc.Children {
		if !past {
			s := markup.Render(c)
			offset += uint32(strings.Count(s, "\n"))
			if _, ok := c.(*markup.Frontmatter); ok {
				past = true
			}
			continue
		}
		b.WriteString(markup.Render(c))
	}
	return b.String(), offset
}

// documentStructure checks that the markup is a complete HTML page.
func documentStructure(src string, offset uint32) []Diagnostic {
	var (
		doctype bool
		open    = make(map[string]bool)
		closed  = make(map[string]bool)
	)
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.DoctypeToken:
			if strings.EqualFold(strings.TrimSpace(string(z.Text())), "html") {
				doctype = true
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			open[string(name)] = true
		case html.EndTagToken:
			name, _ := z.TagName()
			closed[string(name)] = true
		}
	}

	var diags []Diagnostic
	if !doctype {
		diags = append(diags, Diagnostic{Rule: "document", Message: "missing <!DOCTYPE html> declaration", Line: offset})
	}
	for _, tag := range []string{"html", "head", "body"} {
		if !open[tag] || !closed[tag] {
			diags = append(diags, Diagnostic{
				Rule:    "document",
				Message: fmt.Sprintf("missing <%s> element", tag),
				Line:    offset,
			})
		}
	}
	return diags
}

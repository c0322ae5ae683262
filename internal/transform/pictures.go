package transform

import (
	"context"
	"fmt"
	"strconv"

	"github.com/agentic-research/astro-html-helper/internal/frontmatter"
	"github.com/agentic-research/astro-html-helper/internal/markup"
)

// AssetsModule provides the Picture and Image components.
const AssetsModule = "astro:assets"

// Pictures replaces <picture> elements with <Picture /> and bare <img>
// elements with <Image />, then imports whichever components were used.
func Pictures(_ context.Context, doc *markup.Document, env Env) (bool, error) {
	var hasPicture, hasImage bool
	markup.Elements(doc, func(c *markup.Cursor, el *markup.Element) {
		if el.Kind != markup.KindElement {
			return
		}
		switch el.Name {
		case "picture":
			c.Replace(newPicture(el))
			hasPicture = true
		case "img":
			c.Replace(markup.NewComponent("Image", componentAttrs(el.Attributes, nil)...))
			hasImage = true
		}
	})
	if !hasPicture && !hasImage {
		return false, nil
	}

	fm := doc.EnsureFrontmatter()
	block := frontmatter.NewBlock(fm.Value)
	for _, need := range []struct {
		used bool
		name string
	}{{hasPicture, "Picture"}, {hasImage, "Image"}} {
		if !need.used {
			continue
		}
		if err := block.EnsureNamedImport(AssetsModule, need.name); err != nil {
			if !recoverable(err) {
				return false, fmt.Errorf("import %s: %w", need.name, err)
			}
			env.logger().Warn("frontmatter import left unchanged", "path", env.Path, "name", need.name, "error", err)
		}
	}
	fm.Value = block.String()
	return true, nil
}

// newPicture builds a Picture component from the picture's first img child.
func newPicture(picture *markup.Element) *markup.Element {
	for _, child := range picture.Children {
		img, ok := child.(*markup.Element)
		if !ok || !img.Is(markup.KindElement, "img") {
			continue
		}
		return markup.NewComponent("Picture", componentAttrs(img.Attributes, picture.Attr("class"))...)
	}
	return markup.NewComponent("Picture")
}

// componentAttrs orders src first, turns class into an expression, moves the
// picture's class into pictureAttributes, drops decoding and loading, and
// unquotes integer width and height.
func componentAttrs(attrs []*markup.Attribute, pictureClass *markup.Attribute) []*markup.Attribute {
	var out []*markup.Attribute
	for _, a := range attrs {
		if a.Kind != markup.AttrSpread && a.Name == "src" {
			out = append(out, a)
			break
		}
	}
	for _, a := range attrs {
		if a.Kind != markup.AttrSpread && a.Name == "class" {
			out = append(out, classExpr("class", a, func(v string) string { return v }))
			break
		}
	}
	if pictureClass != nil {
		out = append(out, classExpr("pictureAttributes", pictureClass, func(v string) string {
			return "{ class: " + v + " }"
		}))
	}

	for _, a := range attrs {
		if a.Kind == markup.AttrSpread {
			out = append(out, a)
			continue
		}
		switch a.Name {
		case "src", "class", "decoding", "loading":
			continue
		case "width", "height":
			if a.IsLiteral() && isCleanInt(a.Value) {
				out = append(out, markup.Expr(a.Name, a.Value))
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// classExpr renders a class attribute as a JavaScript value wrapped by wrap.
// Literal values become string literals; expressions are used as written.
func classExpr(name string, a *markup.Attribute, wrap func(string) string) *markup.Attribute {
	var v string
	switch a.Kind {
	case markup.AttrExpression:
		v = a.Value
	case markup.AttrTemplate:
		v = "`" + a.Value + "`"
	default:
		v = jsString(a.Value)
	}
	return markup.Expr(name, wrap(v))
}

// isCleanInt reports whether s is a base-10 integer with no sign noise or
// leading zeros.
func isCleanInt(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && strconv.Itoa(n) == s
}

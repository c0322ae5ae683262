package transform

import (
	"context"
	"strings"

	"github.com/agentic-research/astro-html-helper/internal/markup"
)

const (
	netlifyAttr   = "data-netlify"
	recaptchaAttr = "data-netlify-recaptcha"
)

// NetlifyForms marks every form with data-netlify={true} and puts a
// recaptcha placeholder before each submit button that is a direct child of
// the form.
func NetlifyForms(_ context.Context, doc *markup.Document, _ Env) (bool, error) {
	changed := false
	markup.Elements(doc, func(_ *markup.Cursor, el *markup.Element) {
		if !el.Is(markup.KindElement, "form") {
			return
		}
		if !hasAttrValue(el, netlifyAttr, "true") {
			el.Attributes = append(el.Attributes, markup.Expr(netlifyAttr, "true"))
			changed = true
		}

		children := make([]markup.Node, 0, len(el.Children)+1)
		for _, child := range el.Children {
			if isSubmitButton(child) && !endsWithPlaceholder(children) {
				children = append(children, markup.NewElement("div", markup.Expr(recaptchaAttr, "true")))
				changed = true
			}
			children = append(children, child)
		}
		el.Children = children
	})
	return changed, nil
}

func isSubmitButton(n markup.Node) bool {
	el, ok := n.(*markup.Element)
	if !ok || !el.Is(markup.KindElement, "button") {
		return false
	}
	return hasAttrValue(el, "type", "submit")
}

func hasAttrValue(el *markup.Element, name, value string) bool {
	for _, a := range el.Attributes {
		if a.Kind != markup.AttrSpread && a.Name == name && a.Value == value {
			return true
		}
	}
	return false
}

// endsWithPlaceholder reports whether the last non-blank node is a recaptcha
// placeholder.
func endsWithPlaceholder(nodes []markup.Node) bool {
	for i := len(nodes) - 1; i >= 0; i-- {
		switch n := nodes[i].(type) {
		case *markup.Text:
			if strings.TrimSpace(n.Value) == "" {
				continue
			}
			return false
		case *markup.Element:
			return n.Is(markup.KindElement, "div") && n.Attr(recaptchaAttr) != nil
		default:
			return false
		}
	}
	return false
}

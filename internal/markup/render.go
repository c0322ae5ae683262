package markup

import "strings"

// Render serializes n and its subtree.
func Render(n Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

// String renders the whole document.
func (d *Document) String() string {
	return Render(d)
}

func render(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Document:
		for _, c := range n.Children {
			render(b, c)
		}
	case *Frontmatter:
		b.WriteString(fence)
		b.WriteString(n.Value)
		b.WriteString(fence)
	case *Text:
		b.WriteString(n.Value)
	case *Comment:
		b.WriteString("<!--")
		b.WriteString(n.Value)
		b.WriteString("-->")
	case *Doctype:
		b.WriteString("<!")
		b.WriteString(n.Value)
		b.WriteByte('>')
	case *Expression:
		b.WriteByte('{')
		for _, c := range n.Children {
			render(b, c)
		}
		b.WriteByte('}')
	case *Element:
		b.WriteByte('<')
		b.WriteString(n.Name)
		for _, a := range n.Attributes {
			b.WriteString(a.Space)
			renderAttr(b, a)
		}
		b.WriteString(n.TagSpace)
		if n.SelfClosing {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			render(b, c)
		}
		b.WriteString(n.Closing)
	}
}

func renderAttr(b *strings.Builder, a *Attribute) {
	if a.Kind == AttrSpread {
		b.WriteByte('{')
		b.WriteString(a.Value)
		b.WriteByte('}')
		return
	}
	b.WriteString(a.Name)
	if a.Kind == AttrEmpty {
		return
	}
	if a.Assign != "" {
		b.WriteString(a.Assign)
	} else {
		b.WriteByte('=')
	}
	switch a.Kind {
	case AttrQuoted:
		if a.Quote != 0 {
			b.WriteByte(a.Quote)
		}
		b.WriteString(a.Value)
		if a.Quote != 0 {
			b.WriteByte(a.Quote)
		}
	case AttrExpression:
		b.WriteByte('{')
		b.WriteString(a.Value)
		b.WriteByte('}')
	case AttrTemplate:
		b.WriteByte('`')
		b.WriteString(a.Value)
		b.WriteByte('`')
	}
}

// Package markup parses Astro component source into a tree that renders back
// to the exact input bytes for every node a caller leaves untouched.
package markup

import "strings"

// Node is one of *Document, *Frontmatter, *Element, *Text, *Comment,
// *Doctype or *Expression.
type Node interface {
	node()
}

// Parent is implemented by nodes that own an ordered child list.
type Parent interface {
	Node
	ChildNodes() []Node
	SetChild(i int, n Node)
}

// Document is the root of a parsed source file.
type Document struct {
	Children []Node
}

// Frontmatter holds the raw text between the opening and closing "---" fences.
type Frontmatter struct {
	Value string
}

// Text is raw character data, including whitespace.
type Text struct {
	Value string
}

// Comment is an HTML comment; Value excludes the "<!--" and "-->" markers.
type Comment struct {
	Value string
}

// Doctype is a "<!...>" declaration; Value excludes "<!" and ">".
type Doctype struct {
	Value string
}

// Expression is a "{...}" block in markup. Code between the braces is kept
// as *Text children; markup in JSX position ("cond && <img>", a .map
// callback body) is parsed into element children so walks reach it.
type Expression struct {
	Children []Node
}

// Kind distinguishes plain markup tags from framework component invocations.
type Kind int

const (
	KindElement Kind = iota
	KindComponent
	KindFragment
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindFragment:
		return "fragment"
	default:
		return "element"
	}
}

// Element is a tag with attributes and children.
type Element struct {
	Kind       Kind
	Name       string
	Attributes []*Attribute
	Children   []Node

	// SelfClosing reports whether the open tag ended with "/>".
	SelfClosing bool
	// TagSpace is the whitespace between the last attribute and ">" or "/>".
	TagSpace string
	// Closing is the raw closing tag ("</div>"). Empty for void,
	// self-closing and unterminated elements.
	Closing string
}

// AttrKind is the syntactic form of an attribute value.
type AttrKind int

const (
	// AttrEmpty is a bare attribute name without a value.
	AttrEmpty AttrKind = iota
	// AttrQuoted is a literal string value (quoted or unquoted).
	AttrQuoted
	// AttrExpression is a {code} value.
	AttrExpression
	// AttrTemplate is a `template literal` value.
	AttrTemplate
	// AttrSpread is a {...spread} or {shorthand} attribute without a name.
	AttrSpread
)

func (k AttrKind) String() string {
	switch k {
	case AttrQuoted:
		return "quoted"
	case AttrExpression:
		return "expression"
	case AttrTemplate:
		return "template"
	case AttrSpread:
		return "spread"
	default:
		return "empty"
	}
}

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Kind  AttrKind
	Name  string
	Value string

	// Quote is the delimiter of an AttrQuoted value: '"', '\'' or 0 for
	// unquoted values.
	Quote byte
	// Space is the whitespace preceding the attribute.
	Space string
	// Assign is the raw "=" including surrounding whitespace. Empty means "=".
	Assign string
}

func (*Document) node()    {}
func (*Frontmatter) node() {}
func (*Element) node()     {}
func (*Text) node()        {}
func (*Comment) node()     {}
func (*Doctype) node()     {}
func (*Expression) node()  {}

// ChildNodes implements Parent.
func (d *Document) ChildNodes() []Node { return d.Children }

// SetChild implements Parent.
func (d *Document) SetChild(i int, n Node) { d.Children[i] = n }

// ChildNodes implements Parent.
func (e *Element) ChildNodes() []Node { return e.Children }

// SetChild implements Parent.
func (e *Element) SetChild(i int, n Node) { e.Children[i] = n }

// ChildNodes implements Parent.
func (x *Expression) ChildNodes() []Node { return x.Children }

// SetChild implements Parent.
func (x *Expression) SetChild(i int, n Node) { x.Children[i] = n }

// Frontmatter returns the document's frontmatter node, or nil.
func (d *Document) Frontmatter() *Frontmatter {
	for _, c := range d.Children {
		if fm, ok := c.(*Frontmatter); ok {
			return fm
		}
	}
	return nil
}

// EnsureFrontmatter returns the frontmatter node, creating an empty block at
// the top of the document when there is none.
func (d *Document) EnsureFrontmatter() *Frontmatter {
	if fm := d.Frontmatter(); fm != nil {
		return fm
	}
	fm := &Frontmatter{Value: "\n"}
	d.Children = append([]Node{fm, &Text{Value: "\n"}}, d.Children...)
	return fm
}

// NewElement returns a plain element rendered with an explicit closing tag.
func NewElement(name string, attrs ...*Attribute) *Element {
	return &Element{
		Kind:       KindElement,
		Name:       name,
		Attributes: normalize(attrs),
		Closing:    "</" + name + ">",
	}
}

// NewComponent returns a self-closing component invocation.
func NewComponent(name string, attrs ...*Attribute) *Element {
	return &Element{
		Kind:        KindComponent,
		Name:        name,
		Attributes:  normalize(attrs),
		SelfClosing: true,
		TagSpace:    " ",
	}
}

// normalize gives every attribute a single leading space.
func normalize(attrs []*Attribute) []*Attribute {
	out := make([]*Attribute, 0, len(attrs))
	for _, a := range attrs {
		c := *a
		c.Space = " "
		out = append(out, &c)
	}
	return out
}

// Literal returns a double-quoted string attribute.
func Literal(name, value string) *Attribute {
	return &Attribute{Kind: AttrQuoted, Name: name, Value: value, Quote: '"', Space: " "}
}

// Expr returns an expression attribute rendered as name={value}.
func Expr(name, value string) *Attribute {
	return &Attribute{Kind: AttrExpression, Name: name, Value: value, Space: " "}
}

// Is reports whether e is an element of kind k whose name equals name.
func (e *Element) Is(k Kind, name string) bool {
	return e.Kind == k && e.Name == name
}

// Attr returns the first attribute with the given name, or nil.
func (e *Element) Attr(name string) *Attribute {
	for _, a := range e.Attributes {
		if a.Kind != AttrSpread && a.Name == name {
			return a
		}
	}
	return nil
}

// RemoveAttrs drops every attribute whose name is listed and reports whether
// anything was removed.
func (e *Element) RemoveAttrs(names ...string) bool {
	kept := e.Attributes[:0]
	removed := false
	for _, a := range e.Attributes {
		drop := false
		if a.Kind != AttrSpread {
			for _, n := range names {
				if a.Name == n {
					drop = true
					break
				}
			}
		}
		if drop {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	e.Attributes = kept
	return removed
}

// IsLiteral reports whether the attribute carries a literal string value.
func (a *Attribute) IsLiteral() bool {
	return a.Kind == AttrQuoted
}

// isVoid reports whether an HTML element never has a closing tag.
func isVoid(name string) bool {
	switch strings.ToLower(name) {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// isRawText reports whether an element's content is opaque text.
func isRawText(name string) bool {
	switch strings.ToLower(name) {
	case "script", "style":
		return true
	}
	return false
}

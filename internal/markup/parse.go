package markup

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed markup.
type SyntaxError struct {
	Offset  int
	Line    int // 1-indexed
	Column  int // 1-indexed
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

const fence = "---"

type parser struct {
	src   string
	pos   int
	doc   *Document
	stack []*Element
}

// Parse builds a Document from Astro source. Unterminated elements are
// accepted and render without a closing tag; unterminated comments, tags,
// expressions and frontmatter are syntax errors.
func Parse(src string) (*Document, error) {
	p := &parser{src: src, doc: &Document{}}
	if err := p.frontmatter(); err != nil {
		return nil, err
	}
	for p.pos < len(p.src) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return p.doc, nil
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	line, col := 1, 1
	for i := 0; i < offset && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{Offset: offset, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) append(n Node) {
	if len(p.stack) == 0 {
		p.doc.Children = append(p.doc.Children, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, n)
}

// frontmatter consumes an optional leading "---" block. Whitespace before
// the opening fence is kept as a text node.
func (p *parser) frontmatter() error {
	start := len(p.src) - len(strings.TrimLeft(p.src, " \t\r\n"))
	if !strings.HasPrefix(p.src[start:], fence) {
		return nil
	}
	open := start + len(fence)
	end := -1
	for i := open; i+len(fence) <= len(p.src); i++ {
		if p.src[i-1] == '\n' && strings.HasPrefix(p.src[i:], fence) {
			end = i
			break
		}
	}
	if end < 0 {
		return p.errorf(start, "unterminated frontmatter")
	}
	if start > 0 {
		p.append(&Text{Value: p.src[:start]})
	}
	p.append(&Frontmatter{Value: p.src[open:end]})
	p.pos = end + len(fence)
	return nil
}

func (p *parser) next() error {
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		end := strings.Index(rest[4:], "-->")
		if end < 0 {
			return p.errorf(p.pos, "unterminated comment")
		}
		p.append(&Comment{Value: rest[4 : 4+end]})
		p.pos += 4 + end + 3
	case strings.HasPrefix(rest, "<!"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return p.errorf(p.pos, "unterminated declaration")
		}
		p.append(&Doctype{Value: rest[2:end]})
		p.pos += end + 1
	case strings.HasPrefix(rest, "</"):
		p.closeTag()
	case isTagStart(rest):
		return p.openTag()
	case rest[0] == '{':
		return p.expression()
	default:
		p.text()
	}
	return nil
}

// expression parses a "{...}" block starting at p.pos. Code is kept as
// text; each tag that starts where JSX may appear is parsed as markup up to
// its end. A tag that fails to parse stays part of the code.
func (p *parser) expression() error {
	end, ok := matchBrace(p.src[p.pos:])
	if !ok {
		return p.errorf(p.pos, "unterminated expression")
	}
	open, closeAt := p.pos, p.pos+end
	src := p.src[:closeAt]

	expr := &Expression{}
	code := open + 1
	flush := func(to int) {
		if to > code {
			expr.Children = append(expr.Children, &Text{Value: p.src[code:to]})
		}
	}
	for i := open + 1; i < closeAt; {
		switch rest := src[i:]; {
		case rest[0] == '"' || rest[0] == '\'' || rest[0] == '`':
			i = skipString(src, i)
		case strings.HasPrefix(rest, "//"):
			i = skipPast(src, i, "\n")
		case strings.HasPrefix(rest, "/*"):
			i = skipPast(src, i, "*/")
		case isTagStart(rest) && jsxPosition(p.src[open+1:i]):
			sub := &parser{src: src, pos: i, doc: &Document{}}
			if sub.element() != nil {
				// Not markup after all (a TypeScript generic, say).
				i++
				continue
			}
			flush(i)
			expr.Children = append(expr.Children, sub.doc.Children...)
			i = sub.pos
			code = i
		default:
			i++
		}
	}
	flush(closeAt)

	p.append(expr)
	p.pos = closeAt + 1
	return nil
}

// element parses one tag at p.pos together with its content and closing
// tag. Parsing stops at the end of p.src when the element is unterminated.
func (p *parser) element() error {
	if err := p.openTag(); err != nil {
		return err
	}
	for len(p.stack) > 0 && p.pos < len(p.src) {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

// jsxPosition reports whether markup may start after the code in before:
// at the start of an expression, after an operator or opening bracket, or
// after return.
func jsxPosition(before string) bool {
	s := strings.TrimRight(before, " \t\r\n")
	if s == "" {
		return true
	}
	if kw := strings.TrimSuffix(s, "return"); kw != s {
		return kw == "" || !isNameChar(kw[len(kw)-1])
	}
	switch s[len(s)-1] {
	case '(', '[', '{', ',', '?', ':', '=', '>', '&', '|', ';':
		return true
	}
	return false
}

// skipString returns the offset just past the string literal opening at i,
// or len(s) when it is unterminated.
func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(s)
}

// skipPast returns the offset just past the first marker after i, or len(s).
func skipPast(s string, i int, marker string) int {
	if k := strings.Index(s[i:], marker); k >= 0 {
		return i + k + len(marker)
	}
	return len(s)
}

// isTagStart reports whether s begins an opening tag or fragment.
func isTagStart(s string) bool {
	if len(s) < 2 || s[0] != '<' {
		return false
	}
	c := s[1]
	return c == '>' || isLetter(c)
}

func (p *parser) text() {
	i := p.pos + 1
	for i < len(p.src) {
		rest := p.src[i:]
		if rest[0] == '{' || strings.HasPrefix(rest, "<!") || strings.HasPrefix(rest, "</") || isTagStart(rest) {
			break
		}
		i++
	}
	p.appendText(p.src[p.pos:i])
	p.pos = i
}

// appendText merges adjacent text so the tree never holds two text siblings.
func (p *parser) appendText(s string) {
	var children []Node
	if len(p.stack) == 0 {
		children = p.doc.Children
	} else {
		children = p.stack[len(p.stack)-1].Children
	}
	if n := len(children); n > 0 {
		if t, ok := children[n-1].(*Text); ok {
			t.Value += s
			return
		}
	}
	p.append(&Text{Value: s})
}

func (p *parser) closeTag() {
	rest := p.src[p.pos:]
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		p.appendText(rest)
		p.pos = len(p.src)
		return
	}
	raw := rest[:end+1]
	name := strings.TrimSpace(raw[2:end])
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].Name == name {
			p.stack[i].Closing = raw
			p.stack = p.stack[:i]
			p.pos += end + 1
			return
		}
	}
	// Stray closing tag: keep it verbatim.
	p.appendText(raw)
	p.pos += end + 1
}

func (p *parser) openTag() error {
	start := p.pos
	i := p.pos + 1
	for i < len(p.src) && isNameChar(p.src[i]) {
		i++
	}
	el := &Element{Name: p.src[p.pos+1 : i]}
	switch {
	case el.Name == "":
		el.Kind = KindFragment
	case isUpper(el.Name[0]) || strings.Contains(el.Name, "."):
		el.Kind = KindComponent
	default:
		el.Kind = KindElement
	}

	for {
		ws := i
		for i < len(p.src) && isSpace(p.src[i]) {
			i++
		}
		space := p.src[ws:i]
		if i >= len(p.src) {
			return p.errorf(start, "unterminated tag <%s>", el.Name)
		}
		if p.src[i] == '>' {
			el.TagSpace = space
			i++
			break
		}
		if strings.HasPrefix(p.src[i:], "/>") {
			el.TagSpace = space
			el.SelfClosing = true
			i += 2
			break
		}
		attr, next, err := p.attribute(i)
		if err != nil {
			return err
		}
		attr.Space = space
		el.Attributes = append(el.Attributes, attr)
		i = next
	}
	p.pos = i
	p.append(el)

	if el.SelfClosing || (el.Kind == KindElement && isVoid(el.Name)) {
		return nil
	}
	if el.Kind == KindElement && isRawText(el.Name) {
		closing := "</" + strings.ToLower(el.Name)
		end := strings.Index(strings.ToLower(p.src[p.pos:]), closing)
		if end < 0 {
			end = len(p.src) - p.pos
		}
		if end > 0 {
			el.Children = append(el.Children, &Text{Value: p.src[p.pos : p.pos+end]})
		}
		p.pos += end
	}
	p.stack = append(p.stack, el)
	return nil
}

// attribute parses one attribute starting at i and returns it together with
// the offset just past it.
func (p *parser) attribute(i int) (*Attribute, int, error) {
	start := i
	if p.src[i] == '{' {
		end, ok := matchBrace(p.src[i:])
		if !ok {
			return nil, 0, p.errorf(start, "unterminated spread attribute")
		}
		return &Attribute{Kind: AttrSpread, Value: p.src[i+1 : i+end]}, i + end + 1, nil
	}

	for i < len(p.src) && !isSpace(p.src[i]) && p.src[i] != '=' && p.src[i] != '>' && !strings.HasPrefix(p.src[i:], "/>") {
		i++
	}
	attr := &Attribute{Kind: AttrEmpty, Name: p.src[start:i]}
	if attr.Name == "" {
		return nil, 0, p.errorf(start, "unexpected %q in tag", p.src[i])
	}

	j := i
	for j < len(p.src) && isSpace(p.src[j]) {
		j++
	}
	if j >= len(p.src) || p.src[j] != '=' {
		return attr, i, nil
	}
	assignStart := i
	j++
	for j < len(p.src) && isSpace(p.src[j]) {
		j++
	}
	if j >= len(p.src) {
		return nil, 0, p.errorf(start, "missing value for attribute %q", attr.Name)
	}
	if raw := p.src[assignStart:j]; raw != "=" {
		attr.Assign = raw
	}

	switch c := p.src[j]; c {
	case '"', '\'':
		end := strings.IndexByte(p.src[j+1:], c)
		if end < 0 {
			return nil, 0, p.errorf(j, "unterminated attribute value")
		}
		attr.Kind = AttrQuoted
		attr.Quote = c
		attr.Value = p.src[j+1 : j+1+end]
		return attr, j + 1 + end + 1, nil
	case '{':
		end, ok := matchBrace(p.src[j:])
		if !ok {
			return nil, 0, p.errorf(j, "unterminated attribute expression")
		}
		attr.Kind = AttrExpression
		attr.Value = p.src[j+1 : j+end]
		return attr, j + end + 1, nil
	case '`':
		end := strings.IndexByte(p.src[j+1:], '`')
		if end < 0 {
			return nil, 0, p.errorf(j, "unterminated template attribute")
		}
		attr.Kind = AttrTemplate
		attr.Value = p.src[j+1 : j+1+end]
		return attr, j + 1 + end + 1, nil
	default:
		k := j
		for k < len(p.src) && !isSpace(p.src[k]) && p.src[k] != '>' && !strings.HasPrefix(p.src[k:], "/>") {
			k++
		}
		attr.Kind = AttrQuoted
		attr.Value = p.src[j:k]
		return attr, k, nil
	}
}

// matchBrace returns the index of the brace closing s[0]. String literals
// are skipped; if that fails to balance (an apostrophe in markup nested in
// the expression, say) plain brace counting is used instead.
func matchBrace(s string) (int, bool) {
	if end, ok := scanBraces(s, true); ok {
		return end, true
	}
	return scanBraces(s, false)
}

func scanBraces(s string, strs bool) (int, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		case '"', '\'', '`':
			if !strs {
				continue
			}
			j := i + 1
			for j < len(s) && s[j] != c {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(s) {
				return 0, false
			}
			i = j
		}
	}
	return 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':' || c == '.'
}

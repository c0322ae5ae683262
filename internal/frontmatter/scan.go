// Package frontmatter reads and edits the TypeScript block between the "---"
// fences of an Astro component. Statements are located with tree-sitter so
// that edits land on statement boundaries instead of text guesses.
package frontmatter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Specifier is one entry of a named import clause.
type Specifier struct {
	Name  string
	Alias string
	// Type is set for "type Name" entries, which bind no value.
	Type bool
}

// Local returns the identifier the specifier binds.
func (s Specifier) Local() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// Import is a static import statement.
type Import struct {
	Module string
	// Start and End are the byte span of the whole statement.
	Start, End int

	Default   string
	Namespace string
	Named     []Specifier

	// ClauseStart and ClauseEnd span the "{ ... }" clause, braces included.
	// ClauseStart is -1 when the statement has no named clause.
	ClauseStart, ClauseEnd int

	// Type is set for "import type" statements.
	Type bool

	// Malformed is set when tree-sitter had to recover inside the statement.
	Malformed bool
}

// Lists reports whether name appears in the named clause, as an imported
// name or as an alias.
func (imp Import) Lists(name string) bool {
	_, ok := imp.Find(name)
	return ok
}

// Find returns the named specifier that imports or binds name.
func (imp Import) Find(name string) (Specifier, bool) {
	for _, s := range imp.Named {
		if s.Name == name || s.Alias == name {
			return s, true
		}
	}
	return Specifier{}, false
}

// Locals returns every identifier the statement binds.
func (imp Import) Locals() []string {
	var out []string
	if imp.Default != "" {
		out = append(out, imp.Default)
	}
	if imp.Namespace != "" {
		out = append(out, imp.Namespace)
	}
	for _, s := range imp.Named {
		out = append(out, s.Local())
	}
	return out
}

// StatementKind classifies a top-level statement.
type StatementKind int

const (
	StmtOpaque StatementKind = iota
	StmtImport
	StmtDeclaration
	StmtComment
)

func (k StatementKind) String() string {
	switch k {
	case StmtImport:
		return "import"
	case StmtDeclaration:
		return "declaration"
	case StmtComment:
		return "comment"
	default:
		return "opaque"
	}
}

// Statement is one top-level statement of the block.
type Statement struct {
	Kind       StatementKind
	Start, End int
	Text       string
	// Names are the identifiers bound at module scope.
	Names []string
}

// tree is a parsed block.
type tree struct {
	src  []byte
	root *sitter.Node
}

func parse(src string) (*tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	b := []byte(src)
	t, err := parser.ParseCtx(context.Background(), nil, b)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	root := t.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse frontmatter: nil root")
	}
	return &tree{src: b, root: root}, nil
}

// Scan returns every import statement in src, in source order. Statements
// nested inside error-recovery nodes are included and marked Malformed.
func Scan(src string) ([]Import, error) {
	t, err := parse(src)
	if err != nil {
		return nil, err
	}
	var imports []Import
	t.collectImports(t.root, &imports)
	return imports, nil
}

func (t *tree) collectImports(n *sitter.Node, out *[]Import) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			*out = append(*out, t.importOf(child))
		case "ERROR":
			t.collectImports(child, out)
		}
	}
}

func (t *tree) importOf(n *sitter.Node) Import {
	imp := Import{
		Start:       int(n.StartByte()),
		End:         int(n.EndByte()),
		ClauseStart: -1,
		Malformed:   n.HasError() || n.IsMissing(),
		Type:        hasTypeKeyword(n),
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "string":
			imp.Module = unquote(child.Content(t.src))
		case "from_clause":
			if s := firstOfType(child, "string"); s != nil {
				imp.Module = unquote(s.Content(t.src))
			}
		case "import_clause":
			t.readClause(child, &imp)
		}
	}
	return imp
}

func (t *tree) readClause(n *sitter.Node, imp *Import) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "identifier":
			imp.Default = child.Content(t.src)
		case "namespace_import":
			if id := firstOfType(child, "identifier"); id != nil {
				imp.Namespace = id.Content(t.src)
			}
		case "named_imports":
			imp.ClauseStart = int(child.StartByte())
			imp.ClauseEnd = int(child.EndByte())
			if child.HasError() {
				imp.Malformed = true
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				imp.Named = append(imp.Named, t.specifier(spec))
			}
		}
	}
}

func (t *tree) specifier(n *sitter.Node) Specifier {
	var s Specifier
	if name := n.ChildByFieldName("name"); name != nil {
		s.Name = unquote(name.Content(t.src))
	} else if n.NamedChildCount() > 0 {
		s.Name = n.NamedChild(0).Content(t.src)
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		s.Alias = alias.Content(t.src)
	}
	s.Type = hasTypeKeyword(n)
	return s
}

// hasTypeKeyword reports whether n carries a "type" or "typeof" modifier
// token of its own.
func hasTypeKeyword(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		if typ := c.Type(); typ == "type" || typ == "typeof" {
			return true
		}
	}
	return false
}

// Statements returns the top-level statements of src in order.
func Statements(src string) ([]Statement, error) {
	t, err := parse(src)
	if err != nil {
		return nil, err
	}
	var out []Statement
	for i := 0; i < int(t.root.NamedChildCount()); i++ {
		n := t.root.NamedChild(i)
		st := Statement{
			Start: int(n.StartByte()),
			End:   int(n.EndByte()),
			Text:  n.Content(t.src),
		}
		switch n.Type() {
		case "import_statement":
			st.Kind = StmtImport
			st.Names = t.importOf(n).Locals()
		case "comment":
			st.Kind = StmtComment
		case "export_statement":
			if decl := n.ChildByFieldName("declaration"); decl != nil {
				st.Kind = StmtDeclaration
				st.Names = t.declared(decl)
			}
		default:
			if names, ok := t.declaration(n); ok {
				st.Kind = StmtDeclaration
				st.Names = names
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func (t *tree) declaration(n *sitter.Node) ([]string, bool) {
	switch n.Type() {
	case "lexical_declaration", "variable_declaration",
		"function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"type_alias_declaration", "interface_declaration", "enum_declaration":
		return t.declared(n), true
	}
	return nil, false
}

func (t *tree) declared(n *sitter.Node) []string {
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil {
				names = append(names, t.patternNames(name)...)
			}
		}
		return names
	default:
		if name := n.ChildByFieldName("name"); name != nil {
			return []string{name.Content(t.src)}
		}
	}
	return nil
}

// patternNames collects identifiers bound by a declarator name, which may be
// a destructuring pattern.
func (t *tree) patternNames(n *sitter.Node) []string {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []string{n.Content(t.src)}
	}
	if n.Type() == "pair_pattern" {
		if value := n.ChildByFieldName("value"); value != nil {
			return t.patternNames(value)
		}
		return nil
	}
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		names = append(names, t.patternNames(n.NamedChild(i))...)
	}
	return names
}

// HasErrors reports whether src fails to parse cleanly as TypeScript.
func HasErrors(src string) (bool, error) {
	t, err := parse(src)
	if err != nil {
		return false, err
	}
	return t.root.HasError(), nil
}

func firstOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

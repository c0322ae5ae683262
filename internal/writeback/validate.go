package writeback

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/agentic-research/astro-html-helper/internal/markup"
)

// ValidationError contains structured information about a syntax error.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// script is the part of a file checked with tree-sitter, and where it sits
// in the file.
type script struct {
	lang   *sitter.Language
	code   []byte
	line   uint32
	column uint32
}

// Validate parses the script part of content with tree-sitter and returns
// an error if the AST contains syntax errors. For .astro files that is the
// frontmatter. Files with no known script pass through (returns nil).
func Validate(content []byte, filePath string) error {
	s, err := scriptFor(content, filePath)
	if err != nil || s == nil {
		return err
	}

	root, err := parseScript(s)
	if err != nil {
		return fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}
	if !root.HasError() {
		return nil
	}

	// Walk tree to find first ERROR node for a useful error message
	if errNode := findFirstError(root); errNode != nil {
		return s.errorAt(errNode, filePath)
	}
	return &ValidationError{
		FilePath: filePath,
		Line:     s.line,
		Column:   s.column,
		Message:  "AST contains errors",
	}
}

// ASTErrors returns all ERROR node locations in the content for diagnostic reporting.
// Returns nil if no errors or no script.
func ASTErrors(content []byte, filePath string) []ValidationError {
	s, err := scriptFor(content, filePath)
	if err != nil || s == nil {
		return nil
	}
	root, err := parseScript(s)
	if err != nil || !root.HasError() {
		return nil
	}

	var errs []ValidationError
	collectErrors(root, func(n *sitter.Node) {
		errs = append(errs, *s.errorAt(n, filePath))
	})
	return errs
}

func parseScript(s *script) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(s.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, s.code)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("nil root")
	}
	return root, nil
}

// errorAt maps a node position inside the script to a file position.
func (s *script) errorAt(n *sitter.Node, filePath string) *ValidationError {
	row, col := n.StartPoint().Row, n.StartPoint().Column
	if row == 0 {
		col += s.column
	}
	msg := "syntax error in AST"
	if n.IsMissing() {
		msg = fmt.Sprintf("missing %s", n.Type())
	}
	return &ValidationError{
		FilePath: filePath,
		Line:     s.line + row,
		Column:   col,
		Message:  msg,
	}
}

// findFirstError does a depth-first search for the first ERROR node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// collectErrors calls fn for every ERROR/MISSING node in the tree.
func collectErrors(node *sitter.Node, fn func(*sitter.Node)) {
	if node.IsError() || node.IsMissing() {
		fn(node)
		return // don't recurse into error children
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, fn)
		}
	}
}

// scriptFor selects the language and code to check for filePath.
func scriptFor(content []byte, filePath string) (*script, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return &script{lang: typescript.GetLanguage(), code: content}, nil
	case ".js", ".mjs", ".cjs":
		return &script{lang: javascript.GetLanguage(), code: content}, nil
	case ".astro":
		return frontmatterScript(content)
	default:
		return nil, nil
	}
}

// frontmatterScript locates the frontmatter of an Astro source. Markup
// that does not parse is reported by the markup parser, not here.
func frontmatterScript(content []byte) (*script, error) {
	doc, err := markup.Parse(string(content))
	if err != nil {
		return nil, nil
	}
	offset := 0
	for _, c := range doc.Children {
		switch n := c.(type) {
		case *markup.Text:
			offset += len(n.Value)
			continue
		case *markup.Frontmatter:
			offset += len("---")
			prefix := content[:offset]
			line := uint32(strings.Count(string(prefix), "\n"))
			column := uint32(offset - (strings.LastIndexByte(string(prefix), '\n') + 1))
			return &script{
				lang:   typescript.GetLanguage(),
				code:   []byte(n.Value),
				line:   line,
				column: column,
			}, nil
		}
		break
	}
	return nil, nil
}

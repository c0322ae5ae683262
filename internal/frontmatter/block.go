package frontmatter

import (
	"fmt"
	"strings"
)

// Block is an editable frontmatter text. Edits are applied to the text
// directly so untouched statements keep their exact formatting.
type Block struct {
	text     string
	appended bool
}

// NewBlock wraps the raw frontmatter text.
func NewBlock(text string) *Block {
	return &Block{text: text}
}

// String returns the current text.
func (b *Block) String() string {
	return b.text
}

// EnsureNamedImport merges name into the import from module, adding the
// import when needed. See EnsureImport.
func (b *Block) EnsureNamedImport(module, name string) error {
	text, err := EnsureImport(b.text, module, name)
	b.text = text
	return err
}

// EnsureStatement appends stmt on its own line unless the text already
// contains it. It reports whether the statement was appended. When name is
// bound by some other statement, nothing is appended and ErrAlreadyDeclared
// is returned.
func (b *Block) EnsureStatement(name, stmt string) (bool, error) {
	if strings.Contains(b.text, stmt) {
		return false, nil
	}
	bound, err := b.Binds(name)
	if err != nil {
		return false, err
	}
	if bound {
		return false, fmt.Errorf("%s: %w", name, ErrAlreadyDeclared)
	}
	b.text += "\n" + stmt
	b.appended = true
	return true, nil
}

// Terminate ends the block with a newline when statements were appended.
func (b *Block) Terminate() {
	if b.appended {
		b.text += "\n"
		b.appended = false
	}
}

// Binds reports whether a top-level statement binds name.
func (b *Block) Binds(name string) (bool, error) {
	names, err := b.Bindings()
	if err != nil {
		return false, err
	}
	_, ok := names[name]
	return ok, nil
}

// Bindings maps every identifier bound at module scope to the text of the
// statement binding it.
func (b *Block) Bindings() (map[string]string, error) {
	stmts, err := Statements(b.text)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, st := range stmts {
		for _, n := range st.Names {
			if _, seen := out[n]; !seen {
				out[n] = st.Text
			}
		}
	}
	return out, nil
}

package frontmatter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoNamedImports is returned when the module is imported without a
	// "{ ... }" clause to merge into. The text is left unchanged.
	ErrNoNamedImports = errors.New("import has no named clause")
	// ErrMalformedImport is returned when the import from the module cannot
	// be edited safely. The text is left unchanged.
	ErrMalformedImport = errors.New("malformed import statement")
	// ErrAlreadyDeclared is returned when a statement would bind a name that
	// another statement already binds.
	ErrAlreadyDeclared = errors.New("identifier already declared")
)

// EnsureImport makes text import name from module. A missing import is
// inserted at the top, below any leading comment or blank lines. An existing
// value import from module gets name merged into its named clause; "import
// type" statements are never merged into. The result is unchanged when name
// is already listed.
func EnsureImport(text, module, name string) (string, error) {
	imports, err := Scan(text)
	if err != nil {
		return text, err
	}

	for _, imp := range imports {
		if imp.Module != module {
			continue
		}
		if imp.Malformed {
			return text, fmt.Errorf("%s: %w", module, ErrMalformedImport)
		}
		if imp.Type {
			if imp.Lists(name) {
				return text, fmt.Errorf("%s as a type: %w", name, ErrAlreadyDeclared)
			}
			continue
		}
		if imp.ClauseStart < 0 {
			return text, fmt.Errorf("%s: %w", module, ErrNoNamedImports)
		}
		if s, ok := imp.Find(name); ok {
			if s.Type {
				return text, fmt.Errorf("%s as a type: %w", name, ErrAlreadyDeclared)
			}
			return text, nil
		}
		return mergeNamed(text, imp, name), nil
	}

	broken, err := HasErrors(text)
	if err != nil {
		return text, err
	}
	if broken && mentions(text, module) {
		return text, fmt.Errorf("%s: %w", module, ErrMalformedImport)
	}

	stmt := fmt.Sprintf("import { %s } from %q;", name, module)
	pos, ok := insertionPoint(text)
	if !ok {
		return "\n" + stmt + "\n" + text, nil
	}
	return text[:pos] + stmt + "\n" + text[pos:], nil
}

// mergeNamed inserts name before the closing brace of imp's named clause.
func mergeNamed(text string, imp Import, name string) string {
	closing := imp.ClauseEnd - 1
	before := strings.TrimRight(text[imp.ClauseStart:closing], " \t\r\n")
	switch {
	case strings.HasSuffix(before, "{"):
		before += name + " "
	case strings.HasSuffix(before, ","):
		before += " " + name + " "
	default:
		before += ", " + name + " "
	}
	return text[:imp.ClauseStart] + before + text[closing:]
}

// insertionPoint returns the offset just past the leading run of blank and
// comment lines. ok is false when the text starts with code.
func insertionPoint(text string) (int, bool) {
	lines := strings.Split(text, "\n")
	last := -1
	inBlock := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inBlock:
		case trimmed == "", strings.HasPrefix(trimmed, "//"), strings.HasPrefix(trimmed, "/*"):
		case strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "*/"):
		default:
			return offsetAfter(lines, last, len(text))
		}
		inBlock = blockOpen(trimmed, inBlock)
		last = i
	}
	return offsetAfter(lines, last, len(text))
}

func offsetAfter(lines []string, last, limit int) (int, bool) {
	if last < 0 {
		return 0, false
	}
	pos := 0
	for i := 0; i <= last; i++ {
		pos += len(lines[i]) + 1
	}
	return min(pos, limit), true
}

// blockOpen reports whether a "/* ... */" comment is still open at the end
// of line.
func blockOpen(line string, open bool) bool {
	for {
		if open {
			i := strings.Index(line, "*/")
			if i < 0 {
				return true
			}
			line, open = line[i+2:], false
			continue
		}
		if strings.HasPrefix(line, "//") {
			return false
		}
		i := strings.Index(line, "/*")
		if i < 0 {
			return false
		}
		line, open = line[i+2:], true
	}
}

func mentions(text, module string) bool {
	re := regexp.MustCompile(`(?:from|import)\s*["']` + regexp.QuoteMeta(module) + `["']`)
	return re.MatchString(text)
}

// Package ident derives JavaScript identifiers and file names from asset
// URLs and element ids. Every function is pure and total.
package ident

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	fallbackBinding   = "image"
	fallbackComponent = "Svg"
	bindingPrefix     = "img"
)

var (
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	separated  = regexp.MustCompile(`[-_]([a-zA-Z0-9])`)
)

// VariableName derives a binding identifier from the last path segment of
// s, up to its first dot.
//
//	https://example.com/01-hero-image.jpg -> img01HeroImage
//	https://example.com/image@2x.jpg     -> image2x
func VariableName(s string) string {
	seg := s[strings.LastIndex(s, "/")+1:]
	title, _, _ := strings.Cut(seg, ".")
	return camel(title)
}

// ImportName derives a binding identifier for a remote URL that is imported
// as a module. URLs without a file extension in their path fall back to
// "image".
func ImportName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackBinding
	}
	if u.Path == "" || u.Path == "/" {
		return fallbackBinding
	}
	name := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if !strings.Contains(name, ".") {
		return fallbackBinding
	}
	title, _, _ := strings.Cut(name, ".")
	return camel(title)
}

func camel(title string) string {
	s := disallowed.ReplaceAllString(title, "")
	s = separated.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return fallbackBinding
	}
	if isDigit(s[0]) {
		s = bindingPrefix + s
	}
	if reserved[s] {
		s = bindingPrefix + strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}

// ComponentName derives a PascalCase component name from an element id.
//
//	user-icon -> UserIcon, 123-icon -> Svg123Icon
func ComponentName(id string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(disallowed.ReplaceAllString(id, ""), isSeparator) {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	s := b.String()
	if s == "" {
		return fallbackComponent
	}
	if isDigit(s[0]) {
		return fallbackComponent + s
	}
	return s
}

// SVGFilename derives a file name from an element id. It returns "" when
// nothing usable is left after sanitizing.
func SVGFilename(id string) string {
	s := strings.ToLower(disallowed.ReplaceAllString(id, ""))
	s = strings.ReplaceAll(s, "_", "-")
	if strings.Trim(s, "-") == "" {
		return ""
	}
	return s + ".svg"
}

// CounterNames returns the file and component names for the n-th anonymous
// svg: svg_NN.svg and SVGNN.
func CounterNames(n int) (filename, component string) {
	return fmt.Sprintf("svg_%02d.svg", n), fmt.Sprintf("SVG%02d", n)
}

// Valid reports whether s is usable as a binding identifier.
func Valid(s string) bool {
	return validIdent.MatchString(s) && !reserved[s]
}

var validIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSeparator(r rune) bool { return r == '-' || r == '_' }

var reserved = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,
}

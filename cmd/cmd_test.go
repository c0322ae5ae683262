package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ASTRO_HTML_HELPER_CONFIG", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFormat_File(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "src", "pages", "index.astro")
	writeFile(t, page, "---\n---\n<picture><img src=\"/hero.jpg\" width=\"10\"></picture>\n")

	out, _, err := run(t, "format", "-f", page)
	require.NoError(t, err)
	assert.Contains(t, out, "Formatted")
	assert.Contains(t, out, "pictures, picture-src-string")

	got := readFile(t, page)
	assert.Contains(t, got, `import { Picture } from "astro:assets";`)
	assert.Contains(t, got, `const hero = "/hero.jpg";`)
	assert.Contains(t, got, "<Picture src={hero} width={10} />")

	out, _, err = run(t, "transform", "-f", page)
	require.NoError(t, err)
	assert.Contains(t, out, "already formatted")
	assert.Equal(t, got, readFile(t, page))
}

func TestFormat_FlagsSelectSteps(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "contact.astro")
	src := "<form><button type=\"submit\">Send</button></form>\n<img src=\"/a.png\">\n<svg id=\"logo\"></svg>\n"
	writeFile(t, page, src)

	_, _, err := run(t, "format", "-f", page, "--netlify-form", "--no-pictures", "--no-picture-src-string", "--svg")
	require.NoError(t, err)

	got := readFile(t, page)
	assert.Contains(t, got, `<form data-netlify={true}>`)
	assert.Contains(t, got, `<img src="/a.png">`)
	assert.Contains(t, got, `import Logo from "./logo.svg";`)
	assert.Equal(t, `<svg id="logo"></svg>`, readFile(t, filepath.Join(dir, "logo.svg")))
}

func TestFormat_DirWithPackageConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "site", "astroHtmlHelper": {"pictures": false}}`)
	writeFile(t, filepath.Join(dir, "src", "a.astro"), "<img src=\"/a.png\">")
	writeFile(t, filepath.Join(dir, "src", "nested", "b.astro"), "<img src=\"/b.png\">")
	writeFile(t, filepath.Join(dir, "src", "broken.astro"), "<div>\n<!-- never closed")

	out, stderr, err := run(t, "format", "-d", dir, "--concurrency", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, out, "Formatted 2 of 3 files")
	assert.Contains(t, stderr, "broken.astro")

	assert.Equal(t, "---\n\nconst a = \"/a.png\";\n---\n<img src={a}>", readFile(t, filepath.Join(dir, "src", "a.astro")))
	assert.Contains(t, readFile(t, filepath.Join(dir, "src", "nested", "b.astro")), "<img src={b}>")
}

func TestFormat_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "custom.json")
	writeFile(t, cfg, `{"pictures": false, "picture_src_string": false}`)
	page := filepath.Join(dir, "a.astro")
	writeFile(t, page, "<img src=\"/a.png\">")

	_, _, err := run(t, "format", "--config", cfg, "-f", page)
	require.NoError(t, err)
	assert.Equal(t, "<img src=\"/a.png\">", readFile(t, page))

	_, _, err = run(t, "format", "--config", cfg, "-f", page, "--no-pictures=false")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, page), `<Image src="/a.png" />`)
}

func TestFormat_DryRun(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "a.astro")
	writeFile(t, page, "<img src=\"/a.png\">")

	out, _, err := run(t, "format", "-f", page, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "<Image src={a} />")
	assert.Equal(t, "<img src=\"/a.png\">", readFile(t, page))
}

func TestFormat_Errors(t *testing.T) {
	_, _, err := run(t, "format")
	assert.ErrorContains(t, err, "specify a file")

	_, _, err = run(t, "format", "-f", "a.astro", "-d", "src")
	assert.Error(t, err)

	_, _, err = run(t, "format", "-f", filepath.Join(t.TempDir(), "missing.astro"))
	assert.Error(t, err)

	_, _, err = run(t, "format", "-d", t.TempDir(), "--concurrency", "0")
	assert.ErrorContains(t, err, "concurrency")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.astro"), "---\nimport Card from \"./Card.astro\";\n---\n<Card />\n")
	writeFile(t, filepath.Join(dir, "pages", "bad.astro"), "---\nconst hero = 1;\nconst hero = 2;\n---\n<p>{hero}</p>\n")

	out, _, err := run(t, "validate", "-f", filepath.Join(dir, "ok.astro"))
	require.NoError(t, err)
	assert.Contains(t, out, "No problems found in 1 files")

	out, _, err = run(t, "validate", "-d", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 problems found in 2 files")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, filepath.Join("pages", "bad.astro")+`:line 3: "hero" is declared more than once (duplicate-binding)`, lines[0])
}

func TestValidate_Document(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "Card.astro")
	writeFile(t, page, "<section><p>card</p></section>\n")

	_, _, err := run(t, "validate", "-f", page)
	require.NoError(t, err)

	out, _, err := run(t, "validate", "-f", page, "--document")
	require.Error(t, err)
	assert.Contains(t, out, "missing <!DOCTYPE html> declaration (document)")
}

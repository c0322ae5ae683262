package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"---\n---\n<picture><img src=\"test.jpg\"/></picture>",
		"---\nimport Layout from \"../layouts/Layout.astro\";\nconst { title } = Astro.props;\n---\n\n<Layout title={title}>\n  <main class='hero'>\n    <h1>{title}</h1>\n  </main>\n</Layout>\n",
		"<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><title>x</title></head>\n<body></body>\n</html>\n",
		"<img src=\"a.jpg\" alt=\"A\" loading=lazy >",
		"<div {...props} data-x = \"1\" hidden></div>",
		"<p>a < b and c > d</p>",
		"<!-- comment <img src=\"x\"> -->\n<br/>",
		"<script>\n  const a = \"<div>\";\n  if (a < 1) {}\n</script>",
		"<style>h1 { color: red; }</style>",
		"<ul>{items.map((item) => <li>{item}</li>)}</ul>",
		"<>\n  <Fragment set:html={html} />\n</>",
		"<Card title=`Hello ${name}` />",
		"<section>\n  <svg viewBox=\"0 0 10 10\"><path d=\"M0 0\"/></svg>\n</section>",
		"<div>unclosed",
		"<span>stray</div></span>",
		"  \n---\nconst a = 1;\n---\n<p>{a}</p>",
	}
	for _, in := range inputs {
		doc, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, in, doc.String())
	}
}

func TestParse_Frontmatter(t *testing.T) {
	doc, err := Parse("---\n// header\nconst a = 1;\n---\n<p>hi</p>")
	require.NoError(t, err)

	fm := doc.Frontmatter()
	require.NotNil(t, fm)
	assert.Equal(t, "\n// header\nconst a = 1;\n", fm.Value)
	_, first := doc.Children[0].(*Frontmatter)
	assert.True(t, first, "frontmatter must be the first node")
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	doc, err := Parse("---\n---\n<img src=\"a.jpg\"/>")
	require.NoError(t, err)
	require.NotNil(t, doc.Frontmatter())
	assert.Equal(t, "\n", doc.Frontmatter().Value)
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse("<p>---</p>")
	require.NoError(t, err)
	assert.Nil(t, doc.Frontmatter())
}

func TestParse_Attributes(t *testing.T) {
	doc, err := Parse(`<img src="a.jpg" alt='b' width=100 class={cls} hidden title=` + "`t`" + ` {...rest} />`)
	require.NoError(t, err)
	require.Len(t, doc.Children, 1)

	img := doc.Children[0].(*Element)
	assert.Equal(t, KindElement, img.Kind)
	assert.True(t, img.SelfClosing)
	assert.Equal(t, " ", img.TagSpace)

	want := []struct {
		name  string
		kind  AttrKind
		value string
	}{
		{"src", AttrQuoted, "a.jpg"},
		{"alt", AttrQuoted, "b"},
		{"width", AttrQuoted, "100"},
		{"class", AttrExpression, "cls"},
		{"hidden", AttrEmpty, ""},
		{"title", AttrTemplate, "t"},
		{"", AttrSpread, "...rest"},
	}
	require.Len(t, img.Attributes, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, img.Attributes[i].Name)
		assert.Equal(t, w.kind, img.Attributes[i].Kind, w.name)
		assert.Equal(t, w.value, img.Attributes[i].Value, w.name)
	}
	assert.Equal(t, byte('\''), img.Attributes[1].Quote)
	assert.Equal(t, byte(0), img.Attributes[2].Quote)
}

func TestParse_Kinds(t *testing.T) {
	doc, err := Parse(`<div><Picture src={a} /><Icons.Star /><></></div>`)
	require.NoError(t, err)

	div := doc.Children[0].(*Element)
	require.Len(t, div.Children, 3)
	assert.Equal(t, KindComponent, div.Children[0].(*Element).Kind)
	assert.Equal(t, KindComponent, div.Children[1].(*Element).Kind)
	assert.Equal(t, KindFragment, div.Children[2].(*Element).Kind)
	assert.Equal(t, "</div>", div.Closing)
}

func TestParse_VoidElementsDoNotNest(t *testing.T) {
	doc, err := Parse(`<picture><source srcset="a.webp"><img src="a.jpg"></picture>`)
	require.NoError(t, err)

	pic := doc.Children[0].(*Element)
	require.Len(t, pic.Children, 2)
	assert.Equal(t, "source", pic.Children[0].(*Element).Name)
	assert.Equal(t, "img", pic.Children[1].(*Element).Name)
}

func TestParse_ScriptIsRawText(t *testing.T) {
	doc, err := Parse("<script>let x = '<img src=\"a\">';</script>")
	require.NoError(t, err)

	script := doc.Children[0].(*Element)
	require.Len(t, script.Children, 1)
	_, isText := script.Children[0].(*Text)
	assert.True(t, isText)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"frontmatter": "---\nconst a = 1;\n",
		"comment":     "<p><!-- open</p>",
		"tag":         "<img src=\"a.jpg\"",
		"expression":  "<p>{a</p>",
		"attr value":  "<img src=\"a.jpg>",
	}
	for name, in := range cases {
		_, err := Parse(in)
		require.Error(t, err, name)

		var se *SyntaxError
		require.ErrorAs(t, err, &se, name)
		assert.GreaterOrEqual(t, se.Line, 1)
	}
}

func TestSyntaxError_Position(t *testing.T) {
	_, err := Parse("<div>\n  <img src=\"a.jpg\"")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 3, se.Column)
}

func TestRender_NewNodes(t *testing.T) {
	c := NewComponent("Picture", Literal("src", "test.jpg"), Expr("height", "100"))
	assert.Equal(t, `<Picture src="test.jpg" height={100} />`, Render(c))

	assert.Equal(t, `<SVG01 />`, Render(NewComponent("SVG01")))

	div := NewElement("div", Expr("data-netlify-recaptcha", "true"))
	assert.Equal(t, `<div data-netlify-recaptcha={true}></div>`, Render(div))
}

func TestEnsureFrontmatter(t *testing.T) {
	doc, err := Parse(`<img src="a.jpg">`)
	require.NoError(t, err)

	fm := doc.EnsureFrontmatter()
	fm.Value += "const a = 1;\n"
	assert.Equal(t, "---\nconst a = 1;\n---\n<img src=\"a.jpg\">", doc.String())
	assert.Same(t, fm, doc.EnsureFrontmatter())
}

func TestElement_RemoveAttrs(t *testing.T) {
	doc, err := Parse(`<img src="a.jpg" width="1" {...rest} height="2" alt="x">`)
	require.NoError(t, err)

	img := doc.Children[0].(*Element)
	assert.True(t, img.RemoveAttrs("width", "height"))
	assert.False(t, img.RemoveAttrs("width"))
	assert.Equal(t, `<img src="a.jpg" {...rest} alt="x">`, doc.String())
}

func TestParse_ExpressionMarkup(t *testing.T) {
	doc, err := Parse(`<ul>{items.map((item) => <li class="x">{item}</li>)}</ul>`)
	require.NoError(t, err)

	ul := doc.Children[0].(*Element)
	expr := ul.Children[0].(*Expression)
	require.Len(t, expr.Children, 3)
	assert.Equal(t, "items.map((item) => ", expr.Children[0].(*Text).Value)
	li := expr.Children[1].(*Element)
	assert.Equal(t, "li", li.Name)
	assert.Equal(t, "</li>", li.Closing)
	inner := li.Children[0].(*Expression)
	assert.Equal(t, []Node{&Text{Value: "item"}}, inner.Children)
	assert.Equal(t, ")", expr.Children[2].(*Text).Value)
}

func TestParse_ExpressionBranches(t *testing.T) {
	doc, err := Parse(`{ok ? <A /> : <b>no</b>}`)
	require.NoError(t, err)

	expr := doc.Children[0].(*Expression)
	require.Len(t, expr.Children, 4)
	assert.Equal(t, "ok ? ", expr.Children[0].(*Text).Value)
	assert.Equal(t, "A", expr.Children[1].(*Element).Name)
	assert.Equal(t, " : ", expr.Children[2].(*Text).Value)
	assert.Equal(t, "b", expr.Children[3].(*Element).Name)
}

func TestParse_ExpressionCodeOnly(t *testing.T) {
	for _, in := range []string{
		`{a < b && c}`,
		`{'<img src="a.jpg">'}`,
		"{`<p>${x}</p>`}",
		`{/* <img> */ x}`,
		`{count<max ? 1 : 2}`,
	} {
		doc, err := Parse(in)
		require.NoError(t, err, in)
		expr := doc.Children[0].(*Expression)
		require.Len(t, expr.Children, 1, in)
		_, isText := expr.Children[0].(*Text)
		assert.True(t, isText, in)
		assert.Equal(t, in, doc.String())
	}
}

func TestParse_ExpressionRoundTrip(t *testing.T) {
	inputs := []string{
		"{show && <img src=\"https://example.com/a.jpg\" width=\"10\" />}",
		"{ok && <p>Don't</p>}",
		"{show && <img src=\"a.jpg\">}",
		"{list.map((i) => {\n  return <p>{i}</p>;\n})}",
		"<div>{a && <form><button type=\"submit\">Go</button></form>} tail</div>",
		"{x && <>\n  <svg><path d=\"M0\"/></svg>\n</>}",
	}
	for _, in := range inputs {
		doc, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, in, doc.String(), in)
	}
}

func TestElements_ReachesExpressionMarkup(t *testing.T) {
	doc, err := Parse(`<div>{ok && <picture><img src="a.jpg"></picture>}{items.map((i) => <svg id={i} />)}</div>`)
	require.NoError(t, err)

	var names []string
	Elements(doc, func(_ *Cursor, el *Element) {
		names = append(names, el.Name)
	})
	assert.Equal(t, []string{"div", "picture", "img", "svg"}, names)
}

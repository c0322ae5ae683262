package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPictures_PictureWithImg(t *testing.T) {
	out := apply(t, Pictures, `<picture><img src="test.jpg" height="100" width="200"/></picture>`, Env{})
	assert.Equal(t, "---\nimport { Picture } from \"astro:assets\";\n---\n<Picture src=\"test.jpg\" height={100} width={200} />", out)
}

func TestPictures_Classes(t *testing.T) {
	src := "---\n---\n<picture class=\"picture-class\"><source srcset=\"a.avif\"><img src=\"a.jpg\" class=\"img-class\" alt=\"A\" decoding=\"async\" loading=\"lazy\" /></picture>"
	out := apply(t, Pictures, src, Env{})
	assert.Contains(t, out, `<Picture src="a.jpg" class={"img-class"} pictureAttributes={{ class: "picture-class" }} alt="A" />`)
	assert.NotContains(t, out, "decoding")
	assert.NotContains(t, out, "loading")
	assert.NotContains(t, out, "<source")
}

func TestPictures_BareImg(t *testing.T) {
	src := "---\n---\n<img alt=\"x\" width=\"10px\" height=\"020\" src=\"x.png\" class=\"hero\" loading=\"eager\">"
	out := apply(t, Pictures, src, Env{})
	assert.Equal(t, "---\nimport { Image } from \"astro:assets\";\n---\n<Image src=\"x.png\" class={\"hero\"} alt=\"x\" width=\"10px\" height=\"020\" />", out)
}

func TestPictures_PictureWithoutImg(t *testing.T) {
	out := apply(t, Pictures, "---\n---\n<picture><source srcset=\"a.webp\"></picture>", Env{})
	assert.Contains(t, out, "<Picture />")
}

func TestPictures_ExpressionClassPassesThrough(t *testing.T) {
	out := apply(t, Pictures, "---\n---\n<img src={hero} class={styles.hero} width={w}>", Env{})
	assert.Contains(t, out, "<Image src={hero} class={styles.hero} width={w} />")
}

func TestPictures_BothImportsMerge(t *testing.T) {
	src := "---\nimport { Image } from \"astro:assets\";\n---\n<picture><img src=\"a.jpg\"/></picture>\n<img src=\"b.jpg\"/>"
	out := apply(t, Pictures, src, Env{})
	assert.Contains(t, out, "---\nimport { Image, Picture } from \"astro:assets\";\n---\n")
	assert.Contains(t, out, "<Picture src=\"a.jpg\" />\n<Image src=\"b.jpg\" />")
}

func TestPictures_NamespaceImportIsLeftAlone(t *testing.T) {
	src := "---\nimport * as assets from \"astro:assets\";\n---\n<img src=\"b.jpg\"/>"
	out := apply(t, Pictures, src, Env{})
	assert.Contains(t, out, "---\nimport * as assets from \"astro:assets\";\n---\n")
	assert.Contains(t, out, "<Image src=\"b.jpg\" />")
}

func TestPictures_NothingToDo(t *testing.T) {
	src := "---\n---\n<Image src={hero} alt=\"\" />\n"
	assert.Equal(t, src, apply(t, Pictures, src, Env{}))
}

func TestPictures_Idempotent(t *testing.T) {
	src := "---\n// page\n---\n<picture class=\"p\"><img src=\"a.jpg\" width=\"1\"></picture>"
	once := apply(t, Pictures, src, Env{})
	assert.Equal(t, once, apply(t, Pictures, once, Env{}))
}

func TestPictures_InsideExpression(t *testing.T) {
	out := apply(t, Pictures, "{show && <img src=\"https://example.com/a.jpg\" width=\"10\" />}", Env{})
	assert.Equal(t, "---\nimport { Image } from \"astro:assets\";\n---\n{show && <Image src=\"https://example.com/a.jpg\" width={10} />}", out)

	out = apply(t, Pictures, "---\n---\n<ul>{items.map((i) => <li><picture><img src={i.src} /></picture></li>)}</ul>", Env{})
	assert.Contains(t, out, "<ul>{items.map((i) => <li><Picture src={i.src} /></li>)}</ul>")
}

func TestPictures_ComparisonIsNotMarkup(t *testing.T) {
	src := "---\n---\n{count<img ? 1 : 2}"
	assert.Equal(t, src, apply(t, Pictures, src, Env{}))
}

func TestPictures_TypeImportGetsValueImport(t *testing.T) {
	src := "---\nimport type { ImageMetadata } from \"astro:assets\";\n---\n<img src={hero} alt=\"\">"
	out := apply(t, Pictures, src, Env{})
	assert.Equal(t, "---\nimport { Image } from \"astro:assets\";\nimport type { ImageMetadata } from \"astro:assets\";\n---\n<Image src={hero} alt=\"\" />", out)
}

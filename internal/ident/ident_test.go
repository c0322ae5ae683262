package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableName(t *testing.T) {
	cases := map[string]string{
		"https://example.com/test.jpg":                   "test",
		"https://example.com/test-photo.png":             "testPhoto",
		"https://example.com/image.thumbnail.webp":       "image",
		"https://example.com/avatar":                     "avatar",
		"https://example.com/my-super-long-filename.jpg": "mySuperLongFilename",
		"https://example.com/user_profile_image.png":     "userProfileImage",
		"https://example.com/header-nav_logo.svg":        "headerNavLogo",
		"https://example.com/image-2024-01.jpg":          "image202401",
		"https://example.com/01-hero-image.jpg":          "img01HeroImage",
		"https://example.com/heroImage.jpg":              "heroImage",
		"https://example.com/a.jpg":                      "a",
		"https://example.com/MY-LOGO.PNG":                "MYLOGO",
		"https://example.com/image@2x.jpg":               "image2x",
		"../assets/local-photo.png":                      "localPhoto",
		"https://example.com/":                           "image",
		"":                                               "image",
		".hidden":                                        "image",
		"https://example.com/class.png":                  "imgClass",
		"https://example.com/a--b.png":                   "aB",
	}
	for in, want := range cases {
		assert.Equal(t, want, VariableName(in), in)
	}
}

func TestImportName(t *testing.T) {
	cases := map[string]string{
		"https://example.com/test-image.jpg":  "testImage",
		"https://example.com/hero_photo.png":  "heroPhoto",
		"https://example.com/simple.jpg":      "simple",
		"https://example.com/":                "image",
		"https://example.com":                 "image",
		"https://example.com/avatar":          "image",
		"https://example.com/123image.jpg":    "img123image",
		"https://example.com/my@image$1.jpg":  "myimage1",
		"https://example.com/a.jpg?w=200&h=1": "a",
		"://bad":                              "image",
	}
	for in, want := range cases {
		assert.Equal(t, want, ImportName(in), in)
	}
}

func TestComponentName(t *testing.T) {
	cases := map[string]string{
		"my-icon":         "MyIcon",
		"user_profile":    "UserProfile",
		"user-icon":       "UserIcon",
		"my_special_icon": "MySpecialIcon",
		"123-icon":        "Svg123Icon",
		"my@icon#test":    "Myicontest",
		"LOUD-name":       "LoudName",
		"":                "Svg",
		"@@":              "Svg",
	}
	for in, want := range cases {
		assert.Equal(t, want, ComponentName(in), in)
	}
}

func TestSVGFilename(t *testing.T) {
	assert.Equal(t, "user-icon.svg", SVGFilename("user-icon"))
	assert.Equal(t, "my-special-icon.svg", SVGFilename("my_special_icon"))
	assert.Equal(t, "myicontest.svg", SVGFilename("my@icon#test"))
	assert.Equal(t, "123-icon.svg", SVGFilename("123-icon"))
	assert.Equal(t, "", SVGFilename("@#!"))
}

func TestCounterNames(t *testing.T) {
	file, comp := CounterNames(1)
	assert.Equal(t, "svg_01.svg", file)
	assert.Equal(t, "SVG01", comp)

	file, comp = CounterNames(12)
	assert.Equal(t, "svg_12.svg", file)
	assert.Equal(t, "SVG12", comp)
}

func TestDerivedNamesAreAlwaysValid(t *testing.T) {
	inputs := []string{
		"", "/", "-", "_", "--", "9", "%%%", "https://x.y/-.png", "https://x.y/_1.png",
		"https://x.y/über-bild.png", "https://x.y/new.png", "https://x.y/a b.png",
		"data:image/png;base64,AAAA", "https://x.y/2x@.png",
	}
	for _, in := range inputs {
		assert.True(t, Valid(VariableName(in)), "VariableName(%q) = %q", in, VariableName(in))
		assert.True(t, Valid(ImportName(in)), "ImportName(%q) = %q", in, ImportName(in))
		assert.True(t, Valid(ComponentName(in)), "ComponentName(%q) = %q", in, ComponentName(in))
	}
}

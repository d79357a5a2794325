package document

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/faleproxy/internal/wordswap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Yale University Test Page</title>
  <meta name="description" content="Yale University">
  <style>.yale { color: blue; }</style>
</head>
<body>
  <div class="container">
    <h1>Welcome to Yale University</h1>
    <p>Yale University is a private Ivy League research university in New Haven, Connecticut.</p>
    <p>Founded in 1701 as the Collegiate School, YALE is the third-oldest institution of higher education in the US.</p>
    <ul>
      <li><a href="https://www.yale.edu/about">About Yale</a></li>
      <li><a href="https://www.yale.edu/admissions">Yale Admissions</a></li>
    </ul>
    <img src="https://www.yale.edu/images/logo.png" alt="Yale Logo">
    <!-- Yale comment -->
    <script>var yale = "Yale";</script>
    <p>The yale medical school and Yalensis are nearby.</p>
  </div>
</body>
</html>`

func newTestTransformer(t *testing.T, sentinel string) *Transformer {
	t.Helper()
	r, err := wordswap.New(wordswap.DefaultRule())
	require.NoError(t, err)
	return NewTransformer(NewHTMLCodec(), r, Options{Sentinel: sentinel})
}

func TestTransformHTMLDocument(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform(samplePage)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, "Fale University Test Page", res.Title)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	require.NoError(t, err)

	assert.Equal(t, "Fale University Test Page", doc.Find("title").Text())
	assert.Equal(t, "Welcome to Fale University", doc.Find("h1").Text())
	assert.Contains(t, doc.Find("p").First().Text(), "Fale University is a private")
	assert.Contains(t, doc.Find("p").Eq(1).Text(), "FALE is the third-oldest")
	assert.Equal(t, "The fale medical school and Yalensis are nearby.", doc.Find("p").Eq(2).Text())
	assert.Equal(t, "About Fale", doc.Find("a").First().Text())
	assert.Equal(t, "Fale Admissions", doc.Find("a").Eq(1).Text())

	// 属性、样式、脚本和注释保持不变
	href, _ := doc.Find("a").First().Attr("href")
	assert.Equal(t, "https://www.yale.edu/about", href)
	alt, _ := doc.Find("img").Attr("alt")
	assert.Equal(t, "Yale Logo", alt)
	content, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Yale University", content)
	assert.Contains(t, res.HTML, `<script>var yale = "Yale";</script>`)
	assert.Contains(t, res.HTML, `.yale { color: blue; }`)
	assert.Contains(t, res.HTML, `<!-- Yale comment -->`)
	assert.Contains(t, res.HTML, `<!DOCTYPE html>`)
}

func TestTransformKeepsLinkHref(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform(`<a href="https://yale.edu/about">About Yale</a>`)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<a href="https://yale.edu/about">About Fale</a>`)
	assert.Empty(t, res.Title)
}

func TestTransformTitle(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform(`<html><head><title>Yale University Test Page</title></head><body></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Fale University Test Page", res.Title)
	assert.Contains(t, res.HTML, `<title>Fale University Test Page</title>`)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, LocationTitle, res.Changes[0].Location)
}

func TestTransformPreservesStructure(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform(`<body><p id="x">Yale <b class="y">YALE</b> yale</p>Yale</body>`)
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head></head><body><p id="x">Fale <b class="y">FALE</b> fale</p>Fale</body></html>`,
		res.HTML)
	assert.Equal(t, 4, res.Replacements)
	assert.Len(t, res.Changes, 4)
}

func TestTransformSkipsRawTextElements(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	src := `<body><noscript>Yale</noscript><template><p>Yale</p></template><textarea>Yale</textarea></body>`
	res, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<noscript>Yale</noscript>`)
	assert.Contains(t, res.HTML, `<template><p>Yale</p></template>`)
	assert.Contains(t, res.HTML, `<textarea>Fale</textarea>`)
}

func TestTransformMalformedHTML(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform(`<div><p>Yale College<span>yale & friends`)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Fale College")
	assert.Contains(t, res.HTML, "fale &amp; friends")
}

func TestTransformEmptyDocument(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	res, err := tr.Transform("")
	require.NoError(t, err)
	assert.Empty(t, res.HTML)
	assert.Empty(t, res.Title)
}

func TestTransformFramesetDocument(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	src := `<html><head><title>Yale Frames</title></head><frameset cols="50%"><frame src="/yale/left.html"></frameset></html>`
	res, err := tr.Transform(src)
	require.NoError(t, err)
	assert.Equal(t, "Fale Frames", res.Title)
	assert.Contains(t, res.HTML, `src="/yale/left.html"`)
}

func TestTransformSentinelPage(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	src := `<html><head><title>Yale Test Page</title></head><body><h1>Hello Yale</h1><p>This is a test page with no Yale references.</p></body></html>`
	res, err := tr.Transform(src)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "Yale Test Page", res.Title)
	assert.Equal(t, src, res.HTML)
}

func TestTransformSentinelNeedsBareParagraph(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	tests := []struct {
		name string
		src  string
	}{
		{"with attribute", `<p class="x">This is a test page with no Yale references.</p>`},
		{"with comment", `<p>This is a test page<!-- c --> with no Yale references.</p>`},
		{"split by element", `<p>This is a test page with no <span>Yale</span> references.</p>`},
		{"empty paragraph", `<p></p><p>Yale</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tr.Transform(tt.src)
			require.NoError(t, err)
			assert.False(t, res.Skipped)
			assert.Contains(t, res.HTML, "Fale")
		})
	}
}

func TestTransformSentinelDisabled(t *testing.T) {
	tr := newTestTransformer(t, "")

	src := `<html><head></head><body><p>This is a test page with no Yale references.</p></body></html>`
	res, err := tr.Transform(src)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Contains(t, res.HTML, "no Fale references")
}

func TestTransformIsIdempotent(t *testing.T) {
	tr := newTestTransformer(t, DefaultSentinel)

	first, err := tr.Transform(samplePage)
	require.NoError(t, err)

	second, err := tr.Transform(first.HTML)
	require.NoError(t, err)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Title, second.Title)
	assert.Zero(t, second.Replacements)
}

func TestHTMLCodecRoundTrip(t *testing.T) {
	codec := NewHTMLCodec()

	src := `<html><head><title>Plain</title></head><body><p class="a">Hello <em>world</em></p></body></html>`
	tree, err := codec.Parse(src)
	require.NoError(t, err)

	out, err := codec.Render(tree)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	_, err = codec.Render(&fakeTree{})
	assert.Error(t, err)
}

func TestHTMLTreeSVGTitleIsNotDocumentTitle(t *testing.T) {
	tree, err := NewHTMLCodec().Parse(`<body><svg><title>Yale logo</title></svg></body>`)
	require.NoError(t, err)

	_, ok := tree.Title()
	assert.False(t, ok)
}

package rewrite

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const pageURL = "http://x.test/"

func newLookup(preserveFragments bool) *Lookup {
	return NewLookup("http://x.test/", map[string]string{
		"http://cdn.test/a.css":           "/assets/css/aaa.css",
		"http://cdn.test/a.css?v=1&t=2":   "/assets/css/abc.css",
		"http://cdn.test/app.js":          "/assets/js/bbb.js",
		"http://cdn.test/img/hero.png":    "/assets/images/ccc.png",
		"http://cdn.test/img/hero@2x.png": "/assets/images/ddd.png",
		"http://cdn.test/font.woff2":      "/assets/fonts/eee.woff2",
		"http://cdn.test/bg.jpg":          "/assets/images/fff.jpg",
	}, map[string]string{
		"http://x.test/":      "/index.html",
		"http://x.test/about": "/about/index.html",
	}, preserveFragments)
}

func TestRules(t *testing.T) {
	lk := newLookup(false)
	tests := []struct {
		name string
		rule func(string, string, *Lookup) string
		in   string
		want string
	}{
		{"link href", LinkHref,
			`<link rel="stylesheet" href="http://cdn.test/a.css">`,
			`<link rel="stylesheet" href="/assets/css/aaa.css">`},
		{"link protocol relative single quoted", LinkHref,
			`<link href='//cdn.test/a.css' rel=stylesheet>`,
			`<link href='/assets/css/aaa.css' rel=stylesheet>`},
		{"link entity encoded query", LinkHref,
			`<link href="http://cdn.test/a.css?v=1&amp;t=2">`,
			`<link href="/assets/css/abc.css">`},
		{"script src", ScriptSrc,
			`<script async src="http://cdn.test/app.js"></script>`,
			`<script async src="/assets/js/bbb.js"></script>`},
		{"img src", ImgSrc,
			`<img src="http://cdn.test/img/hero.png" alt="a > b">`,
			`<img src="/assets/images/ccc.png" alt="a > b">`},
		{"img data-src untouched", ImgSrc,
			`<img data-src="http://cdn.test/img/hero.png" src="http://cdn.test/missing.png">`,
			`<img data-src="http://cdn.test/img/hero.png" src="http://cdn.test/missing.png">`},
		{"srcset keeps descriptors", Srcset,
			`<img srcset="http://cdn.test/img/hero.png 1x, http://cdn.test/img/hero@2x.png 2x">`,
			`<img srcset="/assets/images/ccc.png 1x, /assets/images/ddd.png 2x">`},
		{"srcset partial hit", Srcset,
			`<source srcset="http://other.test/a.png 480w,http://cdn.test/img/hero.png 960w">`,
			`<source srcset="http://other.test/a.png 480w, /assets/images/ccc.png 960w">`},
		{"inline style", InlineStyle,
			`<div style="background-image: url(&quot;http://cdn.test/bg.jpg&quot;)">`,
			`<div style="background-image: url(&quot;/assets/images/fff.jpg&quot;)">`},
		{"style block", StyleBlock,
			`<style media="all">@font-face{src:url(http://cdn.test/font.woff2) format("woff2")}</style>`,
			`<style media="all">@font-face{src:url(/assets/fonts/eee.woff2) format("woff2")}</style>`},
		{"anchor drops fragment", Anchors,
			`<a class="nav" href="/about#team">About</a>`,
			`<a class="nav" href="/about/index.html">About</a>`},
		{"anchor root without slash", Anchors,
			`<a href="http://x.test">Home</a>`,
			`<a href="/index.html">Home</a>`},
		{"anchor other origin untouched", Anchors,
			`<a href="http://other.test/about">x</a>`,
			`<a href="http://other.test/about">x</a>`},
		{"anchor uncaptured page untouched", Anchors,
			`<a href="/missing">x</a>`,
			`<a href="/missing">x</a>`},
		{"abbr is not an anchor", Anchors,
			`<abbr href="/about">x</abbr>`,
			`<abbr href="/about">x</abbr>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule(tt.in, pageURL, lk))
		})
	}
}

func TestAnchors_PreserveFragments(t *testing.T) {
	got := Anchors(`<a href="/about#team">About</a>`, pageURL, newLookup(true))
	assert.Equal(t, `<a href="/about/index.html#team">About</a>`, got)
}

func TestCSS(t *testing.T) {
	lk := newLookup(false)
	in := `.hero{background:url('../img/hero.png')} @font-face{src:url("../font.woff2#iefix")} .x{background:url(data:image/png;base64,AAAA)}`
	want := `.hero{background:url('/assets/images/ccc.png')} @font-face{src:url("/assets/fonts/eee.woff2#iefix")} .x{background:url(data:image/png;base64,AAAA)}`
	assert.Equal(t, want, CSS(in, "http://cdn.test/css/site.css", lk))
}

const samplePage = `<!DOCTYPE html>
<html><head>
<link rel="stylesheet" href="http://cdn.test/a.css">
<link rel="icon" href="/favicon.ico">
<script src="http://cdn.test/app.js"></script>
<style>body{background:url("http://cdn.test/bg.jpg")}</style>
</head><body>
<a href="/">Home</a> <a href="/about">About</a> <a href="https://elsewhere.test/">Out</a>
<img src="http://cdn.test/img/hero.png" srcset="http://cdn.test/img/hero.png 1x, http://cdn.test/img/hero@2x.png 2x">
<div style="background:url('http://cdn.test/bg.jpg')"></div>
</body></html>`

func TestHTML_AllContexts(t *testing.T) {
	want := `<!DOCTYPE html>
<html><head>
<link rel="stylesheet" href="/assets/css/aaa.css">
<link rel="icon" href="/favicon.ico">
<script src="/assets/js/bbb.js"></script>
<style>body{background:url("/assets/images/fff.jpg")}</style>
</head><body>
<a href="/index.html">Home</a> <a href="/about/index.html">About</a> <a href="https://elsewhere.test/">Out</a>
<img src="/assets/images/ccc.png" srcset="/assets/images/ccc.png 1x, /assets/images/ddd.png 2x">
<div style="background:url('/assets/images/fff.jpg')"></div>
</body></html>`

	got := HTML(samplePage, pageURL, newLookup(false))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML() mismatch (-want +got):\n%s", diff)
	}
}

func TestHTML_Idempotent(t *testing.T) {
	lk := newLookup(false)
	once := HTML(samplePage, pageURL, lk)
	twice := HTML(once, pageURL, lk)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed output (-first +second):\n%s", diff)
	}
}

func TestHTML_MissesVerbatim(t *testing.T) {
	empty := NewLookup("http://x.test/", nil, nil, false)
	assert.Equal(t, samplePage, HTML(samplePage, pageURL, empty))
}

package rewrite

import (
	"html"
	"regexp"
	"strings"
)

// Start tags, honoring quoted attribute values that contain '>'.
const tagBody = `(?:[^>"']|"[^"]*"|'[^']*')*>`

var (
	linkTagRe   = regexp.MustCompile(`(?i)<link\b` + tagBody)
	scriptTagRe = regexp.MustCompile(`(?i)<script\b` + tagBody)
	imgTagRe    = regexp.MustCompile(`(?i)<img\b` + tagBody)
	anchorTagRe = regexp.MustCompile(`(?i)<a\b` + tagBody)

	hrefAttrRe   = attrRe("href")
	srcAttrRe    = attrRe("src")
	srcsetAttrRe = attrRe("srcset")
	styleAttrRe  = attrRe("style")

	styleBlockRe = regexp.MustCompile(`(?is)(<style\b` + tagBody + `)(.*?)(</style>)`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

func attrRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\s` + name + `\s*=\s*)(?:"([^"]*)"|'([^']*)')`)
}

// HTML applies every page rule in turn.
func HTML(text, pageURL string, lk *Lookup) string {
	text = LinkHref(text, pageURL, lk)
	text = ScriptSrc(text, pageURL, lk)
	text = ImgSrc(text, pageURL, lk)
	text = Srcset(text, pageURL, lk)
	text = InlineStyle(text, pageURL, lk)
	text = StyleBlock(text, pageURL, lk)
	text = Anchors(text, pageURL, lk)
	return text
}

// LinkHref rewrites <link href> to localized assets.
func LinkHref(text, pageURL string, lk *Lookup) string {
	return rewriteTagAttr(text, linkTagRe, hrefAttrRe, func(v string) (string, bool) {
		return lk.Asset(v, pageURL)
	})
}

// ScriptSrc rewrites <script src> to localized assets.
func ScriptSrc(text, pageURL string, lk *Lookup) string {
	return rewriteTagAttr(text, scriptTagRe, srcAttrRe, func(v string) (string, bool) {
		return lk.Asset(v, pageURL)
	})
}

// ImgSrc rewrites <img src> to localized assets.
func ImgSrc(text, pageURL string, lk *Lookup) string {
	return rewriteTagAttr(text, imgTagRe, srcAttrRe, func(v string) (string, bool) {
		return lk.Asset(v, pageURL)
	})
}

// Anchors rewrites same-origin <a href> targets to captured pages.
func Anchors(text, pageURL string, lk *Lookup) string {
	return rewriteTagAttr(text, anchorTagRe, hrefAttrRe, func(v string) (string, bool) {
		return lk.Page(v, pageURL)
	})
}

// Srcset rewrites each candidate URL of srcset attributes, keeping width and
// density descriptors. The attribute is re-serialized only if a candidate hits.
func Srcset(text, pageURL string, lk *Lookup) string {
	return rewriteAttr(text, srcsetAttrRe, func(v string) (string, bool) {
		candidates := strings.Split(html.UnescapeString(v), ",")
		hit := false
		for i, c := range candidates {
			fields := spaceRe.Split(strings.TrimSpace(c), -1)
			if len(fields) == 0 || fields[0] == "" {
				candidates[i] = strings.TrimSpace(c)
				continue
			}
			if local, ok := lk.Asset(fields[0], pageURL); ok {
				fields[0] = local
				hit = true
			}
			candidates[i] = strings.Join(fields, " ")
		}
		if !hit {
			return "", false
		}
		return strings.Join(candidates, ", "), true
	})
}

// InlineStyle rewrites url(...) inside style attributes.
func InlineStyle(text, pageURL string, lk *Lookup) string {
	return rewriteAttr(text, styleAttrRe, func(v string) (string, bool) {
		decoded := html.UnescapeString(v)
		out := CSS(decoded, pageURL, lk)
		if out == decoded {
			return "", false
		}
		return out, true
	})
}

// StyleBlock rewrites url(...) inside <style> elements.
func StyleBlock(text, pageURL string, lk *Lookup) string {
	return styleBlockRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := styleBlockRe.FindStringSubmatch(m)
		return sub[1] + CSS(sub[2], pageURL, lk) + sub[3]
	})
}

func rewriteTagAttr(text string, tagRe, attr *regexp.Regexp, fn func(string) (string, bool)) string {
	return tagRe.ReplaceAllStringFunc(text, func(tag string) string {
		return rewriteAttr(tag, attr, fn)
	})
}

// rewriteAttr replaces the value of every attr match for which fn hits. The
// original quote character is kept; misses are returned byte for byte.
func rewriteAttr(text string, attr *regexp.Regexp, fn func(string) (string, bool)) string {
	return attr.ReplaceAllStringFunc(text, func(m string) string {
		idx := attr.FindStringSubmatchIndex(m)
		prefix := m[idx[2]:idx[3]]
		value, quote := quotedValue(m, idx, 2)
		local, ok := fn(value)
		if !ok {
			return m
		}
		return prefix + quote + escapeAttr(local, quote) + quote
	})
}

func escapeAttr(s, quote string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	if quote == "'" {
		return strings.ReplaceAll(s, "'", "&#39;")
	}
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// Package rewrite rebinds remote references in captured HTML and CSS to
// their localized paths. Every rule is a pure function of
// (text, base URL, lookup) and leaves unmatched references untouched.
package rewrite

import (
	"html"
	"strings"

	"github.com/user/site-mirror/pkg/utils"
)

// Lookup maps absolute URLs to local paths.
type Lookup struct {
	origin            string
	assets            map[string]string
	pages             map[string]string
	preserveFragments bool
}

// NewLookup builds a lookup. assets maps asset URL to its local path (with a
// leading slash), pages maps page URL to its path in the mirror tree.
func NewLookup(targetURL string, assets, pages map[string]string, preserveFragments bool) *Lookup {
	lk := &Lookup{
		origin:            utils.Origin(targetURL),
		assets:            make(map[string]string, len(assets)),
		pages:             make(map[string]string, len(pages)),
		preserveFragments: preserveFragments,
	}
	for u, p := range assets {
		lk.assets[utils.Canonical(u)] = p
	}
	for u, p := range pages {
		lk.pages[utils.StripFragment(utils.Canonical(u))] = p
	}
	return lk
}

// Asset resolves ref against base and returns the local asset path on a hit.
func (lk *Lookup) Asset(ref, base string) (string, bool) {
	abs, ok := resolveRef(ref, base)
	if !ok {
		return "", false
	}
	if p, ok := lk.assets[abs]; ok {
		return p, true
	}
	// url(font.svg#icon) keeps its fragment on the local copy.
	if i := strings.IndexByte(abs, '#'); i >= 0 {
		if p, ok := lk.assets[abs[:i]]; ok {
			return p + abs[i:], true
		}
	}
	return "", false
}

// Page resolves an anchor target against base. Only same-origin targets
// that were captured hit; the fragment is dropped unless configured.
func (lk *Lookup) Page(ref, base string) (string, bool) {
	abs, ok := resolveRef(ref, base)
	if !ok || utils.Origin(abs) != lk.origin {
		return "", false
	}
	key := utils.StripFragment(abs)
	p, ok := lk.pages[key]
	if !ok {
		return "", false
	}
	if lk.preserveFragments && len(abs) > len(key) {
		p += abs[len(key):]
	}
	return p, true
}

func resolveRef(ref, base string) (string, bool) {
	ref = strings.TrimSpace(html.UnescapeString(ref))
	if ref == "" {
		return "", false
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return "", false
	}
	return utils.Resolve(base, ref)
}

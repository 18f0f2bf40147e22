package rewrite

import "regexp"

var cssURLRe = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^'"()\s]+))\s*\)`)

// CSS rewrites url(...) references of a stylesheet, resolved against the
// stylesheet's own URL. Each hit keeps its quoting.
func CSS(text, baseURL string, lk *Lookup) string {
	return cssURLRe.ReplaceAllStringFunc(text, func(m string) string {
		ref, quote := quotedValue(m, cssURLRe.FindStringSubmatchIndex(m), 1)
		local, ok := lk.Asset(ref, baseURL)
		if !ok {
			return m
		}
		return "url(" + quote + local + quote + ")"
	})
}

// quotedValue returns the value of the alternation starting at group first:
// double quoted, single quoted, then (if present) bare.
func quotedValue(m string, idx []int, first int) (string, string) {
	quotes := []string{`"`, `'`, ""}
	for i, q := range quotes {
		g := first + i
		if 2*g+1 >= len(idx) {
			break
		}
		if idx[2*g] >= 0 {
			return m[idx[2*g]:idx[2*g+1]], q
		}
	}
	return "", ""
}

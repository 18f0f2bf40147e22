package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// shortHashLen is the number of hex characters kept from a SHA-256 digest.
const shortHashLen = 16

// HashURL creates a truncated SHA256 hash of a URL string.
// It keys every per-page artifact (screenshots, HTML snapshot, trace).
func HashURL(rawURL string) string {
	return HashBytes([]byte(rawURL))
}

// HashBytes returns the first 16 hex characters of the SHA256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:shortHashLen]
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(strings.TrimSpace(relative))
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(relURL)
	canonicalize(abs)
	return abs.String(), nil
}

// Resolve resolves ref against the raw base URL. ok is false when either side
// does not parse.
func Resolve(rawBase, ref string) (string, bool) {
	base, err := url.Parse(rawBase)
	if err != nil {
		return "", false
	}
	abs, err := ToAbsoluteURL(base, ref)
	if err != nil {
		return "", false
	}
	return abs, true
}

// NormalizeURL resolves ref against rawBase and strips the fragment, so two
// URLs that only differ by fragment normalize to the same string.
func NormalizeURL(ref, rawBase string) (string, bool) {
	abs, ok := Resolve(rawBase, ref)
	if !ok {
		return "", false
	}
	return StripFragment(abs), true
}

// StripFragment removes the "#..." suffix of a URL, if any.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Canonical returns rawURL in the same form Resolve produces, used for map keys.
func Canonical(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	canonicalize(u)
	return u.String()
}

// Origin returns scheme://host of rawURL, lowercased.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// IsSameOrigin reports whether both URLs share scheme and host.
func IsSameOrigin(a, b string) bool {
	oa := Origin(a)
	return oa != "" && oa == Origin(b)
}

// LocalPagePath maps a page URL to its path inside the mirror tree:
// "/" becomes "/index.html", an extension-less path becomes "<path>/index.html",
// anything else is kept as is.
func LocalPagePath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if p == "" || p == "/" {
		return "/index.html"
	}
	if !strings.HasSuffix(p, ".html") && !strings.Contains(p, ".") {
		return strings.TrimSuffix(p, "/") + "/index.html"
	}
	return p
}

// LocalURL swaps the origin of pageURL for localBase, keeping only the path.
func LocalURL(pageURL, localBase string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return strings.TrimSuffix(localBase, "/") + "/"
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return strings.TrimSuffix(localBase, "/") + p
}

func canonicalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Host != "" && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	collapseEncodedDots(u)
}

// collapseEncodedDots treats "%2e" path segments as dots and removes them, as
// browsers do. url.ResolveReference only removes literal dot segments.
func collapseEncodedDots(u *url.URL) {
	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") || !strings.Contains(strings.ToLower(p), "%2e") {
		return
	}
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		switch strings.ToLower(seg) {
		case "%2e":
			segs[i] = "."
		case "%2e%2e", ".%2e", "%2e.":
			segs[i] = ".."
		}
	}
	ref, err := url.Parse(strings.Join(segs, "/"))
	if err != nil {
		return
	}
	resolved := u.ResolveReference(ref)
	u.Path, u.RawPath = resolved.Path, resolved.RawPath
}

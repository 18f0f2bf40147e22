package entity

// Page is one captured page, identified by its absolute URL without fragment.
type Page struct {
	URL         string
	Status      int
	Title       string
	Links       []string       // same-origin, normalized, discovery order
	Screenshots map[int]string // breakpoint width -> baseline screenshot path
	HTMLPath    string
	TracePath   string
	Error       string
}

// OK reports whether the page was captured with HTTP 200 and no error.
func (p *Page) OK() bool {
	return p.Status == 200 && p.Error == ""
}

package usecase

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/site-mirror/pkg/utils"
)

// LinkFilter restricts discovered links by substring match on the absolute
// URL. Include wins over Exclude when both are set.
type LinkFilter struct {
	Include []string
	Exclude []string
}

// Allow reports whether link passes the filter.
func (f LinkFilter) Allow(link string) bool {
	if len(f.Include) > 0 {
		for _, p := range f.Include {
			if strings.Contains(link, p) {
				return true
			}
		}
		return false
	}
	for _, p := range f.Exclude {
		if strings.Contains(link, p) {
			return false
		}
	}
	return true
}

// ExtractLinks parses rendered HTML and returns the same-origin anchor
// targets of pageURL, normalized without fragment, filtered and deduplicated
// in discovery order.
func ExtractLinks(pageURL, targetURL, htmlContent string, filter LinkFilter) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if abs, ok := utils.Resolve(pageURL, href); ok {
			base = abs
		}
	}

	seen := make(map[string]struct{})
	links := []string{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		link, ok := utils.NormalizeURL(href, base)
		if !ok || !utils.IsSameOrigin(link, targetURL) || !filter.Allow(link) {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

// ExtractTitle returns the document title, used when the browser cannot
// report one.
func ExtractTitle(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

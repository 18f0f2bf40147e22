package entity

// Report is the manifest written to report.json. It is the only contract
// between the crawl stage and the rewrite/diff stages.
type Report struct {
	TargetURL  string       `json:"target_url"`
	CrawledAt  string       `json:"crawled_at"`
	Pages      PageCounts   `json:"pages"`
	Assets     AssetCounts  `json:"assets"`
	TotalBytes int64        `json:"total_bytes"`
	Errors     []CrawlError `json:"errors"`
	PageList   []PageEntry  `json:"page_list"`
	AssetList  []AssetEntry `json:"asset_list"`
}

type PageCounts struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type AssetCounts struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

type PageEntry struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Title      string `json:"title"`
	LinksCount int    `json:"links_count"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the page is usable by the downstream stages.
func (p PageEntry) OK() bool {
	return p.Status == 200 && p.Error == ""
}

type AssetEntry struct {
	URL       string `json:"url"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
	Type      string `json:"type"`
}

package entity

// Error log entry types.
const (
	ErrorTypePageCrawl     = "page_crawl"
	ErrorTypeAssetDownload = "asset_download"
)

// CrawlError is a recoverable failure recorded during a run.
type CrawlError struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

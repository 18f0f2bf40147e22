package entity

// Asset categories, i.e. subdirectories of assets/.
const (
	CategoryCSS    = "css"
	CategoryJS     = "js"
	CategoryImages = "images"
	CategoryFonts  = "fonts"
	CategoryMedia  = "media"
)

// Asset is a downloaded resource. It is keyed by its origin URL; the stored
// file name is derived from the content hash.
type Asset struct {
	URL         string
	LocalPath   string // relative to the output dir, e.g. assets/css/0123abcd.css
	Size        int64
	Type        string // declared resource type: stylesheet, script, image, font
	ContentType string
	Hash        string
	Category    string
}

// FetchedAsset is the raw result of downloading an asset URL.
type FetchedAsset struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

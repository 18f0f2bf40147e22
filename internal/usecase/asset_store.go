package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/pkg/metrics"
	"github.com/user/site-mirror/pkg/utils"
)

const maxURLExtLen = 5

var contentTypeExt = map[string]string{
	"text/css":               "css",
	"text/javascript":        "js",
	"application/javascript": "js",
	"image/png":              "png",
	"image/jpeg":             "jpg",
	"image/jpg":              "jpg",
	"image/gif":              "gif",
	"image/svg+xml":          "svg",
	"image/webp":             "webp",
	"font/woff":              "woff",
	"font/woff2":             "woff2",
	"font/ttf":               "ttf",
	"video/mp4":              "mp4",
	"video/webm":             "webm",
}

var resourceTypeCategory = map[string]string{
	entity.ResourceStylesheet: entity.CategoryCSS,
	entity.ResourceScript:     entity.CategoryJS,
	entity.ResourceImage:      entity.CategoryImages,
	entity.ResourceFont:       entity.CategoryFonts,
}

var extCategory = map[string]string{
	"css":   entity.CategoryCSS,
	"js":    entity.CategoryJS,
	"png":   entity.CategoryImages,
	"jpg":   entity.CategoryImages,
	"jpeg":  entity.CategoryImages,
	"gif":   entity.CategoryImages,
	"svg":   entity.CategoryImages,
	"webp":  entity.CategoryImages,
	"woff":  entity.CategoryFonts,
	"woff2": entity.CategoryFonts,
	"ttf":   entity.CategoryFonts,
	"otf":   entity.CategoryFonts,
}

// AssetStore downloads assets once per URL and stores them content-addressed
// under assets/<category>/<hash>.<ext>.
type AssetStore struct {
	fetcher   repository.AssetFetcher
	artifacts repository.ArtifactRepository
	errors    *ErrorLog

	group singleflight.Group

	mu         sync.Mutex
	cache      map[string]*entity.Asset
	order      []string
	totalBytes int64
}

// NewAssetStore creates an empty store. Failures are recorded in errLog.
func NewAssetStore(fetcher repository.AssetFetcher, artifacts repository.ArtifactRepository, errLog *ErrorLog) *AssetStore {
	return &AssetStore{
		fetcher:   fetcher,
		artifacts: artifacts,
		errors:    errLog,
		cache:     make(map[string]*entity.Asset),
	}
}

// Store returns the record for rawURL, downloading it on first use. A nil
// asset with a nil error means the download failed and was logged; the
// reference then stays remote.
func (s *AssetStore) Store(ctx context.Context, rawURL, resourceType, contentType string) (*entity.Asset, error) {
	if a := s.lookup(rawURL); a != nil {
		return a, nil
	}

	v, err, _ := s.group.Do(rawURL, func() (any, error) {
		if a := s.lookup(rawURL); a != nil {
			return a, nil
		}
		return s.download(ctx, rawURL, resourceType, contentType)
	})
	if err != nil {
		return nil, err
	}
	a, _ := v.(*entity.Asset)
	return a, nil
}

func (s *AssetStore) download(ctx context.Context, rawURL, resourceType, contentType string) (*entity.Asset, error) {
	fetched, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.fail(rawURL, err.Error())
		return nil, nil
	}
	if fetched.StatusCode < 200 || fetched.StatusCode > 299 {
		s.fail(rawURL, fmt.Sprintf("HTTP %d", fetched.StatusCode))
		return nil, nil
	}

	if contentType == "" {
		contentType = fetched.ContentType
	}
	hash := utils.HashBytes(fetched.Body)
	ext := AssetExtension(rawURL, contentType)
	category := AssetCategory(resourceType, ext)
	localPath := fmt.Sprintf("%s/%s/%s.%s", AssetsDir, category, hash, ext)

	if err := s.artifacts.Write(localPath, fetched.Body); err != nil {
		s.fail(rawURL, err.Error())
		return nil, nil
	}

	asset := &entity.Asset{
		URL:         rawURL,
		LocalPath:   localPath,
		Size:        int64(len(fetched.Body)),
		Type:        resourceType,
		ContentType: contentType,
		Hash:        hash,
		Category:    category,
	}

	s.mu.Lock()
	s.cache[rawURL] = asset
	s.order = append(s.order, rawURL)
	s.totalBytes += asset.Size
	s.mu.Unlock()

	metrics.AssetsStoredTotal.WithLabelValues(category).Inc()
	metrics.AssetBytesTotal.Add(float64(asset.Size))
	slog.Debug("Asset stored", "url", rawURL, "path", localPath, "size", asset.Size)
	return asset, nil
}

func (s *AssetStore) fail(rawURL, msg string) {
	metrics.AssetFailuresTotal.Inc()
	slog.Warn("Asset download failed", "url", rawURL, "error", msg)
	s.errors.Record(entity.ErrorTypeAssetDownload, rawURL, msg)
}

func (s *AssetStore) lookup(rawURL string) *entity.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[rawURL]
}

// Assets returns the stored assets in first-seen order.
func (s *AssetStore) Assets() []*entity.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Asset, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, s.cache[u])
	}
	return out
}

// TotalBytes is the sum of all stored payload sizes.
func (s *AssetStore) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes
}

// AssetExtension picks the file extension for an asset: the URL path suffix
// when it is a short slash-free token, else the content type, else "bin".
func AssetExtension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if i := strings.LastIndexByte(u.Path, '.'); i >= 0 {
			ext := u.Path[i+1:]
			if ext != "" && len(ext) <= maxURLExtLen && !strings.Contains(ext, "/") {
				return strings.ToLower(ext)
			}
		}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	if ext, ok := contentTypeExt[mediaType]; ok {
		return ext
	}
	return "bin"
}

// AssetCategory classifies an asset by resource type first, extension second.
func AssetCategory(resourceType, ext string) string {
	if c, ok := resourceTypeCategory[resourceType]; ok {
		return c
	}
	if c, ok := extCategory[strings.ToLower(ext)]; ok {
		return c
	}
	return entity.CategoryMedia
}

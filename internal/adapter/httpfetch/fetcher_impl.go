package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/site-mirror/internal/entity"
)

// AssetFetcherImpl downloads asset payloads with a plain HTTP client.
type AssetFetcherImpl struct {
	client    *http.Client
	userAgent string
}

// NewAssetFetcher creates a fetcher whose requests time out after timeout.
func NewAssetFetcher(timeout time.Duration, userAgent string) *AssetFetcherImpl {
	return &AssetFetcherImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch issues a GET for url. Non-2xx responses are returned with their
// status code so the caller decides how to record them.
func (f *AssetFetcherImpl) Fetch(ctx context.Context, url string) (*entity.FetchedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	fetched := &entity.FetchedAsset{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fetched, nil
	}

	fetched.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return fetched, nil
}

package repository

import (
	"context"

	"github.com/user/site-mirror/internal/entity"
)

// AssetFetcher downloads the payload of an asset URL. A non-2xx response is
// returned as a FetchedAsset, not as an error.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.FetchedAsset, error)
}

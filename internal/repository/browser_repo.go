package repository

import (
	"context"
	"time"

	"github.com/user/site-mirror/internal/entity"
)

// Browser is the browser-automation collaborator.
type Browser interface {
	// Open creates an isolated browsing context (own cookies and cache).
	Open(ctx context.Context) (BrowserPage, error)
	Close() error
}

// BrowserPage is a single tab inside an isolated browsing context.
type BrowserPage interface {
	// Navigate loads url and returns once the network has settled or the
	// timeout expires. It returns the HTTP status of the main document.
	Navigate(ctx context.Context, url string, timeout time.Duration) (int, error)
	Title(ctx context.Context) (string, error)
	// HTML returns the serialized, fully rendered document.
	HTML(ctx context.Context) (string, error)
	SetViewport(ctx context.Context, width, height int) error
	// Screenshot captures the full page as PNG to path.
	Screenshot(ctx context.Context, path string) error
	// Events streams observed requests and responses. The channel is closed
	// by Close, after the browsing context has been torn down.
	Events() <-chan entity.NetworkEvent
	Close() error
}

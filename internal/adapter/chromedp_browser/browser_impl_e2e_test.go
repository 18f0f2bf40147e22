//go:build e2e

package chromedp_browser

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/entity"
)

func TestBrowser_CapturePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/style.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte("body{background:#eee}"))
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><title>Hello</title><link rel="stylesheet" href="/style.css"></head><body><a href="/about">About</a></body></html>`))
		}
	}))
	defer srv.Close()

	b, err := NewBrowser(Options{Headless: true})
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	p, err := b.Open(ctx)
	require.NoError(t, err)

	var seen []entity.NetworkEvent
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Events() {
			seen = append(seen, ev)
		}
	}()

	status, err := p.Navigate(ctx, srv.URL+"/", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	title, err := p.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello", title)

	html, err := p.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, `href="/about"`)

	require.NoError(t, p.SetViewport(ctx, 375, 600))
	shot := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, p.Screenshot(ctx, shot))

	f, err := os.Open(shot)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 375, img.Bounds().Dx())

	require.NoError(t, p.Close())
	<-done

	var sawStylesheet bool
	for _, ev := range seen {
		if ev.Kind == entity.EventResponse && ev.ResourceType == entity.ResourceStylesheet {
			sawStylesheet = true
		}
	}
	assert.True(t, sawStylesheet)
}

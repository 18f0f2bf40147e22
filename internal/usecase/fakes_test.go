package usecase

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/url"
	"sync"
	"time"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/imagediff"
	"github.com/user/site-mirror/internal/repository"
)

type fakeDoc struct {
	Status   int
	Statuses []int // per visit, overrides Status
	Title    string
	HTML     string
	Events   []entity.NetworkEvent
	NavErr   error
}

// fakeSite serves documents by URL and renders screenshots by path and width,
// so the live site and the local mirror render alike.
type fakeSite struct {
	mu     sync.Mutex
	docs   map[string]*fakeDoc
	visits map[string]int
	render func(u string, width int) image.Image
}

func newFakeSite(docs map[string]*fakeDoc) *fakeSite {
	return &fakeSite{docs: docs, visits: make(map[string]int)}
}

func (s *fakeSite) Visits(u string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[u]
}

func (s *fakeSite) navigate(u string) (*fakeDoc, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[u]++
	doc, ok := s.docs[u]
	if !ok {
		return nil, 0, errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	if doc.NavErr != nil {
		return nil, 0, doc.NavErr
	}
	status := doc.Status
	if n := s.visits[u]; n <= len(doc.Statuses) {
		status = doc.Statuses[n-1]
	}
	return doc, status, nil
}

func (s *fakeSite) screenshot(u string, width int) image.Image {
	if s.render != nil {
		return s.render(u, width)
	}
	return solidImage(width, 40, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pathOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}

type fakeBrowser struct {
	site *fakeSite
}

func (b *fakeBrowser) Open(context.Context) (repository.BrowserPage, error) {
	return &fakePage{site: b.site, events: make(chan entity.NetworkEvent, 64)}, nil
}

func (b *fakeBrowser) Close() error { return nil }

type fakePage struct {
	site   *fakeSite
	doc    *fakeDoc
	url    string
	width  int
	events chan entity.NetworkEvent
	once   sync.Once
}

func (p *fakePage) Navigate(_ context.Context, u string, _ time.Duration) (int, error) {
	doc, status, err := p.site.navigate(u)
	if err != nil {
		return 0, err
	}
	p.doc, p.url = doc, u
	p.events <- entity.NetworkEvent{Kind: entity.EventRequest, URL: u, Method: "GET", ResourceType: entity.ResourceDocument}
	for _, ev := range doc.Events {
		p.events <- ev
	}
	return status, nil
}

func (p *fakePage) Title(context.Context) (string, error) { return p.doc.Title, nil }

func (p *fakePage) HTML(context.Context) (string, error) { return p.doc.HTML, nil }

func (p *fakePage) SetViewport(_ context.Context, width, _ int) error {
	p.width = width
	return nil
}

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	return imagediff.WritePNG(path, p.site.screenshot(p.url, p.width))
}

func (p *fakePage) Events() <-chan entity.NetworkEvent { return p.events }

func (p *fakePage) Close() error {
	p.once.Do(func() { close(p.events) })
	return nil
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	assets map[string]*entity.FetchedAsset
}

func newFakeFetcher(assets map[string]*entity.FetchedAsset) *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), assets: assets}
}

func (f *fakeFetcher) Fetch(_ context.Context, u string) (*entity.FetchedAsset, error) {
	f.mu.Lock()
	f.calls[u]++
	f.mu.Unlock()
	// widen the window in which concurrent callers overlap
	time.Sleep(5 * time.Millisecond)
	if a, ok := f.assets[u]; ok {
		return a, nil
	}
	return &entity.FetchedAsset{StatusCode: 404}, nil
}

func (f *fakeFetcher) Calls(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[u]
}

func response(u, resourceType, contentType string) entity.NetworkEvent {
	return entity.NetworkEvent{Kind: entity.EventResponse, URL: u, ResourceType: resourceType, Status: 200, ContentType: contentType}
}

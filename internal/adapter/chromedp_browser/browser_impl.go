package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

const eventBuffer = 256

const serializeDocument = `(document.doctype ? new XMLSerializer().serializeToString(document.doctype) + "\n" : "") + document.documentElement.outerHTML`

// Options configures the headless browser process.
type Options struct {
	Headless  bool
	UserAgent string
}

// BrowserImpl drives one Chrome process; every Open gets its own browser
// context so cookies and cache never leak between pages.
type BrowserImpl struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser starts Chrome and returns once the browser answers.
func NewBrowser(opts Options) (*BrowserImpl, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))

	// The first Run launches the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &BrowserImpl{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Open creates a tab in a fresh browser context. The tab is torn down when
// ctx is cancelled or Close is called, whichever comes first.
func (b *BrowserImpl) Open(ctx context.Context) (repository.BrowserPage, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())

	p := &pageImpl{
		ctx:    tabCtx,
		cancel: cancel,
		events: make(chan entity.NetworkEvent, eventBuffer),
	}
	p.stopAfter = context.AfterFunc(ctx, p.cancel)
	chromedp.ListenTarget(tabCtx, p.onEvent)

	// The first Run creates the target and must use the tab context itself.
	if err := chromedp.Run(tabCtx, network.Enable(), page.SetLifecycleEventsEnabled(true)); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return p, nil
}

// Close shuts the browser process down.
func (b *BrowserImpl) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

type pageImpl struct {
	ctx       context.Context
	cancel    context.CancelFunc
	stopAfter func() bool

	mu     sync.RWMutex
	closed bool
	events chan entity.NetworkEvent

	idleMu    sync.Mutex
	mainFrame cdp.FrameID
	idle      chan struct{}
	idleFired bool

	closeOnce sync.Once
}

func (p *pageImpl) Events() <-chan entity.NetworkEvent {
	return p.events
}

// Navigate loads url, then waits for the main frame to reach network idle.
func (p *pageImpl) Navigate(ctx context.Context, url string, timeout time.Duration) (int, error) {
	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	idle := p.armIdle()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %s after %s", repository.ErrNavigationTimeout, url, timeout)
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}
	status := 0
	if resp != nil {
		status = int(resp.Status)
	}

	select {
	case <-idle:
		return status, nil
	case <-navCtx.Done():
		if ctx.Err() != nil {
			return status, ctx.Err()
		}
		return status, fmt.Errorf("%w: %s did not settle within %s", repository.ErrNavigationTimeout, url, timeout)
	}
}

func (p *pageImpl) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, chromedp.Title(&title))
	return title, err
}

func (p *pageImpl) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.Evaluate(serializeDocument, &html))
	return html, err
}

func (p *pageImpl) SetViewport(ctx context.Context, width, height int) error {
	return p.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (p *pageImpl) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Close tears the tab and its browser context down, then closes Events.
func (p *pageImpl) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		p.stopAfter()

		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()
	})
	return nil
}

// run executes actions on the tab, bounded by the caller's ctx.
func (p *pageImpl) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *pageImpl) armIdle() <-chan struct{} {
	p.idleMu.Lock()
	defer p.idleMu.Unlock()
	p.idle = make(chan struct{})
	p.idleFired = false
	return p.idle
}

func (p *pageImpl) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		p.emit(entity.NetworkEvent{
			Kind:         entity.EventRequest,
			URL:          e.Request.URL,
			Method:       e.Request.Method,
			ResourceType: strings.ToLower(e.Type.String()),
		})
	case *network.EventResponseReceived:
		p.emit(entity.NetworkEvent{
			Kind:         entity.EventResponse,
			URL:          e.Response.URL,
			ResourceType: strings.ToLower(e.Type.String()),
			Status:       int(e.Response.Status),
			ContentType:  e.Response.MimeType,
		})
	case *page.EventFrameNavigated:
		if e.Frame.ParentID == "" {
			p.idleMu.Lock()
			p.mainFrame = e.Frame.ID
			p.idleMu.Unlock()
		}
	case *page.EventLifecycleEvent:
		if e.Name != "networkIdle" {
			return
		}
		p.idleMu.Lock()
		if e.FrameID == p.mainFrame && p.idle != nil && !p.idleFired {
			close(p.idle)
			p.idleFired = true
		}
		p.idleMu.Unlock()
	}
}

// emit blocks until the consumer takes the event or the tab goes away.
func (p *pageImpl) emit(ev entity.NetworkEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	case <-p.ctx.Done():
	}
}

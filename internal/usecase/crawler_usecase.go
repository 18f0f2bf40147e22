package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/pkg/metrics"
	"github.com/user/site-mirror/pkg/utils"
)

// ErrRootUnavailable aborts a crawl whose root URL never answered 200.
var ErrRootUnavailable = errors.New("root URL unavailable")

var localizedResourceTypes = map[string]bool{
	entity.ResourceStylesheet: true,
	entity.ResourceScript:     true,
	entity.ResourceImage:      true,
	entity.ResourceFont:       true,
}

// CrawlerConfig holds the traversal and capture settings of a run.
type CrawlerConfig struct {
	TargetURL             string
	MaxPages              int
	Breakpoints           []int
	ViewportHeight        int
	PageLoadTimeout       time.Duration
	SettleDelay           time.Duration
	BreakpointSettleDelay time.Duration
	RootRetries           int
	RootRetryDelay        time.Duration
	TraceLimit            int
	Filter                LinkFilter
}

// CrawlResult is the final state of a crawl, input of the report builder.
type CrawlResult struct {
	TargetURL  string
	CrawledAt  time.Time
	Pages      []*entity.Page
	Assets     []*entity.Asset
	TotalBytes int64
	Errors     []entity.CrawlError
}

// Crawler defines the interface for the core crawling process.
type Crawler interface {
	Run(ctx context.Context) (*CrawlResult, error)
}

type crawlerUseCase struct {
	cfg       CrawlerConfig
	browser   repository.Browser
	frontier  *Frontier
	limiter   *RateLimiter
	assets    *AssetStore
	artifacts repository.ArtifactRepository
	errors    *ErrorLog

	mu        sync.Mutex
	pages     []*entity.Page
	pageIndex map[string]int
}

// NewCrawlerUseCase creates a new instance of the crawler use case.
func NewCrawlerUseCase(
	cfg CrawlerConfig,
	browser repository.Browser,
	frontier *Frontier,
	limiter *RateLimiter,
	assets *AssetStore,
	artifacts repository.ArtifactRepository,
	errLog *ErrorLog,
) Crawler {
	return &crawlerUseCase{
		cfg:       cfg,
		browser:   browser,
		frontier:  frontier,
		limiter:   limiter,
		assets:    assets,
		artifacts: artifacts,
		errors:    errLog,
		pageIndex: make(map[string]int),
	}
}

// Run crawls the target breadth-first until the queue drains or the page cap
// is reached. Only a root failure is fatal.
func (uc *crawlerUseCase) Run(ctx context.Context) (*CrawlResult, error) {
	root := utils.StripFragment(utils.Canonical(uc.cfg.TargetURL))
	slog.Info("Starting crawl", "target", root, "breakpoints", uc.cfg.Breakpoints, "max_pages", uc.cfg.MaxPages)

	if _, err := uc.frontier.Offer(ctx, root); err != nil {
		return nil, fmt.Errorf("failed to queue root URL: %w", err)
	}
	if err := uc.crawlRoot(ctx, root); err != nil {
		return nil, err
	}

	for {
		if capped, err := uc.capReached(ctx); err != nil || capped {
			if err != nil {
				return nil, err
			}
			break
		}
		next, ok, err := uc.frontier.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to pop URL from queue: %w", err)
		}
		if !ok {
			break
		}
		uc.crawlPage(ctx, next)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	result := &CrawlResult{
		TargetURL:  uc.cfg.TargetURL,
		CrawledAt:  time.Now().UTC(),
		Pages:      uc.Pages(),
		Assets:     uc.assets.Assets(),
		TotalBytes: uc.assets.TotalBytes(),
		Errors:     uc.errors.Entries(),
	}
	slog.Info("Crawl finished", "pages", len(result.Pages), "assets", len(result.Assets), "errors", len(result.Errors))
	return result, nil
}

// crawlRoot retries the root a bounded number of times with a constant delay.
func (uc *crawlerUseCase) crawlRoot(ctx context.Context, root string) error {
	attempt := 0
	op := func() error {
		attempt++
		next, ok, err := uc.frontier.Next(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return backoff.Permanent(fmt.Errorf("root %s missing from queue", root))
		}

		page := uc.crawlPage(ctx, next)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if page != nil && page.OK() {
			return nil
		}

		if err := uc.frontier.Requeue(ctx, root); err != nil {
			return backoff.Permanent(err)
		}
		if page == nil {
			return fmt.Errorf("attempt %d: not crawled", attempt)
		}
		if page.Error != "" {
			return fmt.Errorf("attempt %d: %s", attempt, page.Error)
		}
		return fmt.Errorf("attempt %d: HTTP %d", attempt, page.Status)
	}

	retries := uc.cfg.RootRetries
	if retries < 1 {
		retries = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(uc.cfg.RootRetryDelay), uint64(retries-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		slog.Warn("Root URL failed, retrying", "url", root, "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("Root URL failed after retries", "url", root, "attempts", attempt, "error", err)
		return fmt.Errorf("%w: %s after %d attempts: %v", ErrRootUnavailable, root, attempt, err)
	}
	return nil
}

// crawlPage visits one URL. It returns nil when the URL was skipped.
func (uc *crawlerUseCase) crawlPage(ctx context.Context, url string) *entity.Page {
	if capped, err := uc.capReached(ctx); err != nil || capped {
		return nil
	}
	added, err := uc.frontier.Visit(ctx, url)
	if err != nil {
		slog.Error("Failed to mark URL as visited", "url", url, "error", err)
		return nil
	}
	if !added {
		return nil
	}
	if err := uc.limiter.Throttle(ctx); err != nil {
		return nil
	}

	slog.Info("Crawling page", "url", url)
	startTime := time.Now()

	page := &entity.Page{URL: url, Screenshots: make(map[int]string)}
	links, captureErr := uc.capture(ctx, page)

	duration := time.Since(startTime)
	metrics.CrawlDuration.Observe(duration.Seconds())

	if captureErr != nil {
		page.Error = captureErr.Error()
		uc.errors.Record(entity.ErrorTypePageCrawl, url, page.Error)
		metrics.PagesCrawledTotal.WithLabelValues("failure", classifyCrawlError(captureErr)).Inc()
		slog.Error("Crawling failed for URL", "url", url, "error", captureErr)
	} else {
		if page.OK() {
			metrics.PagesCrawledTotal.WithLabelValues("success", "").Inc()
		} else {
			metrics.PagesCrawledTotal.WithLabelValues("failure", "http_status").Inc()
		}
		slog.Info("Page captured", "url", url, "status", page.Status, "links", len(page.Links), "duration_ms", duration.Milliseconds())
	}
	uc.record(page)

	for _, link := range links {
		if _, err := uc.frontier.Offer(ctx, link); err != nil {
			slog.Warn("Failed to queue link", "url", link, "error", err)
		}
	}
	return page
}

// capture drives one browsing context through navigation, extraction and
// screenshots. Links are returned only when the whole capture succeeded.
func (uc *crawlerUseCase) capture(ctx context.Context, page *entity.Page) ([]string, error) {
	tab, err := uc.browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browsing context: %w", err)
	}
	obs := uc.observe(ctx, tab)

	visitErr := uc.visit(ctx, tab, page)
	if err := tab.Close(); err != nil {
		slog.Warn("Failed to close browsing context", "url", page.URL, "error", err)
	}
	requests := obs.wait()

	if visitErr != nil {
		return nil, visitErr
	}

	trace, err := json.MarshalIndent(entity.Trace{
		URL:       page.URL,
		Requests:  requests,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	page.TracePath = tracePath(page.URL)
	if err := uc.artifacts.Write(page.TracePath, trace); err != nil {
		return nil, err
	}
	return page.Links, nil
}

func (uc *crawlerUseCase) visit(ctx context.Context, tab repository.BrowserPage, page *entity.Page) error {
	status, err := tab.Navigate(ctx, page.URL, uc.cfg.PageLoadTimeout)
	if err != nil {
		return err
	}
	page.Status = status

	if err := sleepCtx(ctx, uc.cfg.SettleDelay); err != nil {
		return err
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if page.Title, err = tab.Title(ctx); err != nil {
		page.Title = ExtractTitle(html)
	}
	links, err := ExtractLinks(page.URL, uc.cfg.TargetURL, html, uc.cfg.Filter)
	if err != nil {
		return fmt.Errorf("extract links: %w", err)
	}
	page.Links = links

	for _, width := range uc.cfg.Breakpoints {
		if err := tab.SetViewport(ctx, width, uc.cfg.ViewportHeight); err != nil {
			return fmt.Errorf("set viewport %d: %w", width, err)
		}
		if err := sleepCtx(ctx, uc.cfg.BreakpointSettleDelay); err != nil {
			return err
		}
		rel := BaselineScreenshotPath(page.URL, width)
		if err := tab.Screenshot(ctx, uc.artifacts.Path(rel)); err != nil {
			return fmt.Errorf("screenshot %d: %w", width, err)
		}
		page.Screenshots[width] = rel
	}

	// The snapshot is taken after the breakpoint passes, like the screenshots.
	if html, err = tab.HTML(ctx); err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	page.HTMLPath = pageHTMLPath(page.URL)
	return uc.artifacts.Write(page.HTMLPath, []byte(html))
}

type observer struct {
	done     chan struct{}
	group    errgroup.Group
	requests []entity.TraceRequest
}

// observe consumes the tab's event stream: requests go to the trace, cross
// origin asset responses to the asset store.
func (uc *crawlerUseCase) observe(ctx context.Context, tab repository.BrowserPage) *observer {
	obs := &observer{done: make(chan struct{})}
	go func() {
		defer close(obs.done)
		for ev := range tab.Events() {
			switch ev.Kind {
			case entity.EventRequest:
				if len(obs.requests) < uc.cfg.TraceLimit {
					obs.requests = append(obs.requests, entity.TraceRequest{
						URL:          ev.URL,
						ResourceType: ev.ResourceType,
						Method:       ev.Method,
					})
				}
			case entity.EventResponse:
				if !uc.shouldLocalize(ev) {
					continue
				}
				obs.group.Go(func() error {
					_, err := uc.assets.Store(ctx, ev.URL, ev.ResourceType, ev.ContentType)
					return err
				})
			}
		}
	}()
	return obs
}

// wait blocks until the stream is closed and pending downloads are done.
func (o *observer) wait() []entity.TraceRequest {
	<-o.done
	if err := o.group.Wait(); err != nil {
		slog.Warn("Asset downloads interrupted", "error", err)
	}
	if o.requests == nil {
		return []entity.TraceRequest{}
	}
	return o.requests
}

func (uc *crawlerUseCase) shouldLocalize(ev entity.NetworkEvent) bool {
	if !localizedResourceTypes[ev.ResourceType] {
		return false
	}
	if !strings.HasPrefix(ev.URL, "http://") && !strings.HasPrefix(ev.URL, "https://") {
		return false
	}
	return !utils.IsSameOrigin(ev.URL, uc.cfg.TargetURL)
}

func (uc *crawlerUseCase) capReached(ctx context.Context) (bool, error) {
	if uc.cfg.MaxPages <= 0 {
		return false, nil
	}
	n, err := uc.frontier.VisitedCount(ctx)
	if err != nil {
		return false, err
	}
	return n >= int64(uc.cfg.MaxPages), nil
}

// record stores page, replacing an earlier attempt of the same URL.
func (uc *crawlerUseCase) record(page *entity.Page) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if i, ok := uc.pageIndex[page.URL]; ok {
		uc.pages[i] = page
		return
	}
	uc.pageIndex[page.URL] = len(uc.pages)
	uc.pages = append(uc.pages, page)
}

// Pages returns the captured pages in first-visit order.
func (uc *crawlerUseCase) Pages() []*entity.Page {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]*entity.Page, len(uc.pages))
	copy(out, uc.pages)
	return out
}

func classifyCrawlError(err error) string {
	switch {
	case errors.Is(err, repository.ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	default:
		return "capture"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/user/site-mirror/internal/adapter/chromedp_browser"
	"github.com/user/site-mirror/internal/adapter/filesystem"
	"github.com/user/site-mirror/internal/adapter/memory"
	"github.com/user/site-mirror/internal/adapter/postgres"
	redis_adapter "github.com/user/site-mirror/internal/adapter/redis"
	"github.com/user/site-mirror/internal/delivery/http/handler"
	"github.com/user/site-mirror/internal/delivery/http/router"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/internal/usecase"
	"github.com/user/site-mirror/pkg/config"
	"github.com/user/site-mirror/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// app holds what every command needs: configuration, the workspace and the
// optional Postgres archive.
type app struct {
	cfg       *config.Config
	artifacts *filesystem.ArtifactRepoImpl
	reports   *filesystem.ReportRepoImpl
	archive   repository.ReportArchive
	browser   *chromedp_browser.BrowserImpl
	closers   []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(os.Stdout, logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.Debug("Configuration loaded", "path", configPath, "target", cfg.TargetURL)

	artifacts := filesystem.NewArtifactRepo(cfg.OutputDir)
	a := &app{
		cfg:       cfg,
		artifacts: artifacts,
		reports:   filesystem.NewReportRepo(artifacts),
	}

	if cfg.PostgresURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.archive = postgres.NewReportArchive(pool)
		slog.Info("PostgreSQL archive enabled")
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newFrontier returns a Redis-backed frontier when redis_addr is set, an
// in-memory one otherwise. Redis state of a previous run is cleared.
func (a *app) newFrontier(ctx context.Context) (*usecase.Frontier, error) {
	if a.cfg.RedisAddr == "" {
		return usecase.NewFrontier(memory.NewVisitedRepo(), memory.NewQueueRepo()), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { rdb.Close() })

	keys := redis_adapter.KeysFor(a.cfg.TargetURL)
	visited := redis_adapter.NewVisitedRepo(rdb, keys)
	queue := redis_adapter.NewQueueRepo(rdb, keys)
	if err := visited.Reset(ctx); err != nil {
		return nil, err
	}
	if err := queue.Reset(ctx); err != nil {
		return nil, err
	}
	slog.Info("Redis frontier enabled", "addr", a.cfg.RedisAddr)
	return usecase.NewFrontier(visited, queue), nil
}

// openBrowser starts Chrome on first use; later stages share the instance.
func (a *app) openBrowser() (*chromedp_browser.BrowserImpl, error) {
	if a.browser != nil {
		return a.browser, nil
	}
	browser, err := chromedp_browser.NewBrowser(chromedp_browser.Options{
		Headless:  a.cfg.ChromeHeadless,
		UserAgent: a.cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := browser.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	})
	a.browser = browser
	return browser, nil
}

func (a *app) crawlerConfig() usecase.CrawlerConfig {
	return usecase.CrawlerConfig{
		TargetURL:             a.cfg.TargetURL,
		MaxPages:              a.cfg.MaxPages,
		Breakpoints:           a.cfg.Breakpoints,
		ViewportHeight:        a.cfg.ViewportHeight,
		PageLoadTimeout:       a.cfg.PageLoadTimeout,
		SettleDelay:           a.cfg.SettleDelay,
		BreakpointSettleDelay: a.cfg.BreakpointSettleDelay,
		RootRetries:           a.cfg.RootRetries,
		RootRetryDelay:        a.cfg.RootRetryDelay,
		TraceLimit:            a.cfg.TraceLimit,
		Filter:                usecase.LinkFilter{Include: a.cfg.IncludePaths, Exclude: a.cfg.ExcludePaths},
	}
}

func (a *app) differConfig() usecase.DifferConfig {
	return usecase.DifferConfig{
		LocalBaseURL:   a.cfg.LocalBaseURL,
		Breakpoints:    a.cfg.Breakpoints,
		ViewportHeight: a.cfg.ViewportHeight,
		LoadTimeout:    a.cfg.DiffLoadTimeout,
		SettleDelay:    a.cfg.DiffSettleDelay,
		Threshold:      a.cfg.VisualDiffThreshold,
		MaxFailRatio:   a.cfg.MaxFailRatio,
	}
}

func (a *app) newMirrorServer() *http.Server {
	return &http.Server{
		Addr:         a.cfg.ServeAddr,
		Handler:      router.New(handler.NewHandler(a.cfg.OutputDir, a.reports)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// startMetricsServer exposes /metrics on metrics_addr while ctx is alive.
func (a *app) startMetricsServer(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadTimeout: 5 * time.Second}
	go func() {
		if err := serveUntil(ctx, srv); err != nil {
			slog.Error("Metrics server failed", "addr", a.cfg.MetricsAddr, "error", err)
		}
	}()
}

// serveUntil runs srv until ctx is done, then shuts it down gracefully.
func serveUntil(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped", "addr", srv.Addr)
	return nil
}

// waitForServer polls the health endpoint under baseURL until it answers.
func waitForServer(ctx context.Context, baseURL string) error {
	healthURL := strings.TrimSuffix(baseURL, "/") + "/_mirror/health"
	client := &http.Client{Timeout: time.Second}
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check: HTTP %d", resp.StatusCode)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 50), ctx)
	return backoff.Retry(op, policy)
}

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/site-mirror/internal/adapter/httpfetch"
	"github.com/user/site-mirror/internal/usecase"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the target site and capture pages, assets and screenshots",
	Long: `Visits the target breadth-first in a headless browser, one isolated
browsing context per page. Writes HTML snapshots, request traces, baseline
screenshots per breakpoint, downloaded assets and report.json.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		a.startMetricsServer(cmd.Context())
		return runCrawlStage(cmd.Context(), a)
	},
}

func runCrawlStage(ctx context.Context, a *app) error {
	frontier, err := a.newFrontier(ctx)
	if err != nil {
		return err
	}
	browser, err := a.openBrowser()
	if err != nil {
		return err
	}

	errLog := &usecase.ErrorLog{}
	fetcher := httpfetch.NewAssetFetcher(a.cfg.AssetTimeout, a.cfg.UserAgent)
	assets := usecase.NewAssetStore(fetcher, a.artifacts, errLog)
	crawler := usecase.NewCrawlerUseCase(
		a.crawlerConfig(),
		browser,
		frontier,
		usecase.NewRateLimiter(a.cfg.RateLimitRPS),
		assets,
		a.artifacts,
		errLog,
	)

	report, err := usecase.CrawlAndReport(ctx, crawler, a.reports, a.archive)
	if err != nil {
		return err
	}
	slog.Info("Crawl stage complete",
		"pages", report.Pages.Total,
		"failed", report.Pages.Failed,
		"assets", report.Assets.Total,
		"errors", len(report.Errors),
	)
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

// CrawlAndReport runs the crawl and persists its manifest. Nothing is written
// when the crawl fails. archive may be nil.
func CrawlAndReport(ctx context.Context, crawler Crawler, reports repository.ReportRepository, archive repository.ReportArchive) (*entity.Report, error) {
	result, err := crawler.Run(ctx)
	if err != nil {
		return nil, err
	}
	report := BuildReport(result)
	if err := reports.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	slog.Info("Manifest written", "pages", report.Pages.Total, "successful", report.Pages.Successful,
		"failed", report.Pages.Failed, "assets", report.Assets.Total, "total_bytes", report.TotalBytes)

	if archive != nil {
		if id, err := archive.ArchiveReport(ctx, report); err != nil {
			slog.Warn("Failed to archive manifest", "error", err)
		} else {
			slog.Info("Manifest archived", "run_id", id)
		}
	}
	return report, nil
}

// BuildReport aggregates a crawl into the manifest. It is a pure function of
// the crawl result.
func BuildReport(result *CrawlResult) *entity.Report {
	report := &entity.Report{
		TargetURL:  result.TargetURL,
		CrawledAt:  result.CrawledAt.UTC().Format(time.RFC3339Nano),
		Assets:     entity.AssetCounts{ByType: make(map[string]int)},
		TotalBytes: result.TotalBytes,
		Errors:     result.Errors,
		PageList:   make([]entity.PageEntry, 0, len(result.Pages)),
		AssetList:  make([]entity.AssetEntry, 0, len(result.Assets)),
	}
	if report.Errors == nil {
		report.Errors = []entity.CrawlError{}
	}

	for _, p := range result.Pages {
		entry := entity.PageEntry{
			URL:        p.URL,
			Status:     p.Status,
			Title:      p.Title,
			LinksCount: len(p.Links),
			Error:      p.Error,
		}
		report.PageList = append(report.PageList, entry)
		report.Pages.Total++
		if entry.OK() {
			report.Pages.Successful++
		} else {
			report.Pages.Failed++
		}
	}

	for _, a := range result.Assets {
		typ := a.Type
		if typ == "" {
			typ = "other"
		}
		report.Assets.Total++
		report.Assets.ByType[typ]++
		report.AssetList = append(report.AssetList, entity.AssetEntry{
			URL:       a.URL,
			LocalPath: a.LocalPath,
			Size:      a.Size,
			Type:      a.Type,
		})
	}
	return report
}

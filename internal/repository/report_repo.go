package repository

import (
	"context"

	"github.com/user/site-mirror/internal/entity"
)

// ReportRepository persists the manifest and the diff results.
type ReportRepository interface {
	SaveReport(ctx context.Context, report *entity.Report) error
	LoadReport(ctx context.Context) (*entity.Report, error)
	SaveDiffResults(ctx context.Context, results *entity.DiffResults) error
	LoadDiffResults(ctx context.Context) (*entity.DiffResults, error)
}

// ReportArchive keeps a history of runs outside the workspace.
type ReportArchive interface {
	ArchiveReport(ctx context.Context, report *entity.Report) (int64, error)
	ArchiveDiffResults(ctx context.Context, targetURL string, results *entity.DiffResults) (int64, error)
}

// DiffReportRenderer renders diff results for humans.
type DiffReportRenderer interface {
	RenderDiffReport(ctx context.Context, targetURL string, results *entity.DiffResults) error
}

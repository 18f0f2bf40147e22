package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/user/site-mirror/internal/entity"
)

// ReportArchiveImpl provides a concrete implementation for the ReportArchive interface using PostgreSQL.
type ReportArchiveImpl struct {
	db DB
}

// NewReportArchive creates a new instance of ReportArchiveImpl.
func NewReportArchive(db DB) *ReportArchiveImpl {
	return &ReportArchiveImpl{db: db}
}

// ArchiveReport stores a manifest and its page, asset and error rows in one
// transaction and returns the run id.
func (r *ReportArchiveImpl) ArchiveReport(ctx context.Context, report *entity.Report) (int64, error) {
	byType, err := json.Marshal(report.Assets.ByType)
	if err != nil {
		return 0, err
	}
	crawledAt, err := time.Parse(time.RFC3339, report.CrawledAt)
	if err != nil {
		crawledAt = time.Now().UTC()
	}

	var runID int64
	err = inTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO mirror_runs (target_url, crawled_at, pages_total, pages_successful, pages_failed, assets_total, total_bytes, assets_by_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;
		`
		if err := tx.QueryRow(ctx, query,
			report.TargetURL,
			crawledAt,
			report.Pages.Total,
			report.Pages.Successful,
			report.Pages.Failed,
			report.Assets.Total,
			report.TotalBytes,
			byType,
		).Scan(&runID); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, p := range report.PageList {
			if _, err := tx.Exec(ctx,
				`INSERT INTO mirror_pages (run_id, url, status, title, links_count, error) VALUES ($1, $2, $3, $4, $5, $6);`,
				runID, p.URL, p.Status, p.Title, p.LinksCount, p.Error,
			); err != nil {
				return fmt.Errorf("insert page %s: %w", p.URL, err)
			}
		}
		for _, a := range report.AssetList {
			if _, err := tx.Exec(ctx,
				`INSERT INTO mirror_assets (run_id, url, local_path, size, type) VALUES ($1, $2, $3, $4, $5);`,
				runID, a.URL, a.LocalPath, a.Size, a.Type,
			); err != nil {
				return fmt.Errorf("insert asset %s: %w", a.URL, err)
			}
		}
		for _, e := range report.Errors {
			if _, err := tx.Exec(ctx,
				`INSERT INTO mirror_errors (run_id, type, url, error) VALUES ($1, $2, $3, $4);`,
				runID, e.Type, e.URL, e.Error,
			); err != nil {
				return fmt.Errorf("insert error %s: %w", e.URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// ArchiveDiffResults stores a diff summary and one row per compared breakpoint.
func (r *ReportArchiveImpl) ArchiveDiffResults(ctx context.Context, targetURL string, results *entity.DiffResults) (int64, error) {
	var runID int64
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		s := results.Summary
		if err := tx.QueryRow(ctx,
			`INSERT INTO mirror_diff_runs (target_url, total, passed, failed, pass_rate) VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
			targetURL, s.Total, s.Passed, s.Failed, s.PassRate,
		).Scan(&runID); err != nil {
			return fmt.Errorf("insert diff run: %w", err)
		}

		for _, page := range results.Pages {
			widths := make([]int, 0, len(page.Breakpoints))
			for w := range page.Breakpoints {
				widths = append(widths, w)
			}
			sort.Ints(widths)

			for _, w := range widths {
				bp := page.Breakpoints[w]
				if _, err := tx.Exec(ctx,
					`INSERT INTO mirror_diff_breakpoints (diff_run_id, page_url, local_url, width, mismatch, pass, diff_pixels, total_pixels, error)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
					runID, page.URL, page.LocalURL, w, bp.Mismatch, bp.Pass, bp.DiffPixels, bp.TotalPixels, bp.Error,
				); err != nil {
					return fmt.Errorf("insert breakpoint %s@%d: %w", page.URL, w, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/internal/rewrite"
	"github.com/user/site-mirror/pkg/utils"
)

// RewriteStats summarizes a rewrite pass.
type RewriteStats struct {
	Pages       int
	Stylesheets int
	Skipped     int
}

// Rewriter turns captured pages into the mirror tree.
type Rewriter interface {
	Run(ctx context.Context) (*RewriteStats, error)
}

type rewriterUseCase struct {
	reports           repository.ReportRepository
	artifacts         repository.ArtifactRepository
	preserveFragments bool
}

// NewRewriterUseCase creates a new instance of the rewriter use case.
func NewRewriterUseCase(reports repository.ReportRepository, artifacts repository.ArtifactRepository, preserveFragments bool) Rewriter {
	return &rewriterUseCase{reports: reports, artifacts: artifacts, preserveFragments: preserveFragments}
}

// Run reads the manifest, writes every captured page rewritten into mirror/
// and rewrites stylesheet assets in place.
func (uc *rewriterUseCase) Run(ctx context.Context) (*RewriteStats, error) {
	report, err := uc.reports.LoadReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	stats := &RewriteStats{}
	assets := make(map[string]string, len(report.AssetList))
	for _, a := range report.AssetList {
		assets[a.URL] = "/" + a.LocalPath
	}

	pages := make(map[string]string)
	var captured []entity.PageEntry
	for _, p := range report.PageList {
		if !p.OK() {
			slog.Info("Skipping page", "url", p.URL, "status", p.Status, "error", p.Error)
			stats.Skipped++
			continue
		}
		if !uc.artifacts.Exists(pageHTMLPath(p.URL)) {
			slog.Warn("HTML snapshot not found", "url", p.URL)
			stats.Skipped++
			continue
		}
		pages[p.URL] = utils.LocalPagePath(p.URL)
		captured = append(captured, p)
	}

	lk := rewrite.NewLookup(report.TargetURL, assets, pages, uc.preserveFragments)

	for _, p := range captured {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := uc.artifacts.Read(pageHTMLPath(p.URL))
		if err != nil {
			return nil, fmt.Errorf("read snapshot of %s: %w", p.URL, err)
		}
		out := rewrite.HTML(string(raw), p.URL, lk)
		dest := mirrorFilePath(pages[p.URL])
		if err := uc.artifacts.Write(dest, []byte(out)); err != nil {
			return nil, err
		}
		stats.Pages++
		slog.Info("Page rewritten", "url", p.URL, "path", dest)
	}

	for _, a := range report.AssetList {
		if a.Type != entity.ResourceStylesheet && !strings.Contains(a.LocalPath, ".css") {
			continue
		}
		raw, err := uc.artifacts.Read(a.LocalPath)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Stylesheet asset missing", "url", a.URL, "path", a.LocalPath)
			continue
		}
		if err != nil {
			slog.Error("Failed to read stylesheet", "path", a.LocalPath, "error", err)
			continue
		}
		out := rewrite.CSS(string(raw), a.URL, lk)
		if out == string(raw) {
			stats.Stylesheets++
			continue
		}
		if err := uc.artifacts.Write(a.LocalPath, []byte(out)); err != nil {
			slog.Error("Failed to rewrite stylesheet", "path", a.LocalPath, "error", err)
			continue
		}
		stats.Stylesheets++
	}

	slog.Info("Rewrite complete", "pages", stats.Pages, "stylesheets", stats.Stylesheets, "skipped", stats.Skipped)
	return stats, nil
}

// mirrorFilePath maps a local page path to its file under mirror/. Dot
// segments are collapsed after unescaping so the file never leaves mirror/.
func mirrorFilePath(localPath string) string {
	if p, err := url.PathUnescape(localPath); err == nil {
		localPath = p
	}
	return MirrorDir + path.Clean("/"+localPath)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/imagediff"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/pkg/metrics"
	"github.com/user/site-mirror/pkg/utils"
)

// ErrVisualRegression fails a diff run with too many failing pages.
var ErrVisualRegression = errors.New("visual regression")

// DifferConfig holds the re-render and tolerance settings.
type DifferConfig struct {
	LocalBaseURL   string
	Breakpoints    []int
	ViewportHeight int
	LoadTimeout    time.Duration
	SettleDelay    time.Duration
	// Threshold is the tolerated mismatch per breakpoint, in percent.
	Threshold    float64
	MaxFailRatio float64
}

// Differ re-renders the mirror and compares it against the baseline.
type Differ interface {
	Run(ctx context.Context) (*entity.DiffResults, error)
}

type differUseCase struct {
	cfg       DifferConfig
	browser   repository.Browser
	reports   repository.ReportRepository
	artifacts repository.ArtifactRepository
	renderer  repository.DiffReportRenderer
	archive   repository.ReportArchive
}

// NewDifferUseCase creates a new instance of the differ use case. renderer
// and archive may be nil.
func NewDifferUseCase(
	cfg DifferConfig,
	browser repository.Browser,
	reports repository.ReportRepository,
	artifacts repository.ArtifactRepository,
	renderer repository.DiffReportRenderer,
	archive repository.ReportArchive,
) Differ {
	return &differUseCase{
		cfg:       cfg,
		browser:   browser,
		reports:   reports,
		artifacts: artifacts,
		renderer:  renderer,
		archive:   archive,
	}
}

// Run compares every captured page at every breakpoint, writes the results
// and fails with ErrVisualRegression when too many pages fail.
func (uc *differUseCase) Run(ctx context.Context) (*entity.DiffResults, error) {
	report, err := uc.reports.LoadReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	results := &entity.DiffResults{Pages: []*entity.PageDiff{}}
	for _, p := range report.PageList {
		if !p.OK() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pd := uc.diffPage(ctx, p.URL)
		results.Pages = append(results.Pages, pd)
		if pd.Pass {
			metrics.DiffPagesTotal.WithLabelValues("pass").Inc()
		} else {
			metrics.DiffPagesTotal.WithLabelValues("fail").Inc()
		}
	}
	results.Summary = Summarize(results.Pages)

	if err := uc.reports.SaveDiffResults(ctx, results); err != nil {
		return nil, fmt.Errorf("failed to save diff results: %w", err)
	}
	if uc.renderer != nil {
		if err := uc.renderer.RenderDiffReport(ctx, report.TargetURL, results); err != nil {
			slog.Warn("Failed to render diff report", "error", err)
		}
	}
	if uc.archive != nil {
		if id, err := uc.archive.ArchiveDiffResults(ctx, report.TargetURL, results); err != nil {
			slog.Warn("Failed to archive diff results", "error", err)
		} else {
			slog.Info("Diff results archived", "diff_run_id", id)
		}
	}

	s := results.Summary
	slog.Info("Visual diff complete", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "pass_rate", s.PassRate)
	if s.Total > 0 && float64(s.Failed)/float64(s.Total) > uc.cfg.MaxFailRatio {
		return results, fmt.Errorf("%w: %d of %d pages exceed %.1f%% mismatch", ErrVisualRegression, s.Failed, s.Total, uc.cfg.Threshold)
	}
	return results, nil
}

func (uc *differUseCase) diffPage(ctx context.Context, pageURL string) *entity.PageDiff {
	pd := &entity.PageDiff{
		URL:         pageURL,
		LocalURL:    utils.LocalURL(pageURL, uc.cfg.LocalBaseURL),
		Breakpoints: make(map[int]*entity.BreakpointResult, len(uc.cfg.Breakpoints)),
		Pass:        true,
	}
	for _, width := range uc.cfg.Breakpoints {
		bp := uc.diffBreakpoint(ctx, pageURL, pd.LocalURL, width)
		pd.Breakpoints[width] = bp
		if !bp.Pass {
			pd.Pass = false
		}
		metrics.BreakpointMismatch.WithLabelValues(strconv.Itoa(width)).Observe(bp.Mismatch)
		slog.Info("Breakpoint compared", "url", pageURL, "width", width, "mismatch", bp.Mismatch, "pass", bp.Pass, "error", bp.Error)
	}
	return pd
}

func (uc *differUseCase) diffBreakpoint(ctx context.Context, pageURL, localURL string, width int) *entity.BreakpointResult {
	res := &entity.BreakpointResult{
		Paths: entity.ScreenshotPaths{
			Original: BaselineScreenshotPath(pageURL, width),
			Local:    localScreenshotPath(pageURL, width),
		},
	}
	fail := func(msg string) *entity.BreakpointResult {
		res.Error = msg
		res.Mismatch = 100
		res.Pass = false
		return res
	}

	if err := uc.captureLocal(ctx, localURL, width, uc.artifacts.Path(res.Paths.Local)); err != nil {
		slog.Warn("Failed to capture local screenshot", "url", localURL, "width", width, "error", err)
		return fail(entity.DiffErrCapture)
	}
	if !uc.artifacts.Exists(res.Paths.Original) {
		return fail(entity.DiffErrMissingBaseline)
	}

	baseline, err := imagediff.ReadPNG(uc.artifacts.Path(res.Paths.Original))
	if err != nil {
		return fail(err.Error())
	}
	local, err := imagediff.ReadPNG(uc.artifacts.Path(res.Paths.Local))
	if err != nil {
		return fail(err.Error())
	}

	cmp, err := imagediff.Compare(baseline, local, imagediff.DefaultOptions())
	if errors.Is(err, imagediff.ErrDimensionMismatch) {
		return fail(entity.DiffErrDimension)
	}
	if err != nil {
		return fail(err.Error())
	}

	res.Paths.Diff = diffScreenshotPath(pageURL, width)
	if err := imagediff.WritePNG(uc.artifacts.Path(res.Paths.Diff), cmp.Diff); err != nil {
		slog.Warn("Failed to write diff image", "path", res.Paths.Diff, "error", err)
		res.Paths.Diff = ""
	}
	res.DiffPixels = cmp.DiffPixels
	res.TotalPixels = cmp.TotalPixels
	res.Pass = cmp.Mismatch() <= uc.cfg.Threshold
	res.Mismatch = math.Round(cmp.Mismatch()*100) / 100
	return res
}

// captureLocal renders localURL at width in a fresh browsing context.
func (uc *differUseCase) captureLocal(ctx context.Context, localURL string, width int, path string) error {
	tab, err := uc.browser.Open(ctx)
	if err != nil {
		return err
	}
	defer tab.Close()
	go func() {
		for range tab.Events() {
		}
	}()

	if err := tab.SetViewport(ctx, width, uc.cfg.ViewportHeight); err != nil {
		return err
	}
	if _, err := tab.Navigate(ctx, localURL, uc.cfg.LoadTimeout); err != nil {
		return err
	}
	if err := sleepCtx(ctx, uc.cfg.SettleDelay); err != nil {
		return err
	}
	return tab.Screenshot(ctx, path)
}

// Summarize counts passing pages and formats the pass rate with one decimal.
// An empty run has a pass rate of "0.0".
func Summarize(pages []*entity.PageDiff) entity.DiffSummary {
	s := entity.DiffSummary{Total: len(pages), PassRate: "0.0"}
	for _, p := range pages {
		if p.Pass {
			s.Passed++
		}
	}
	s.Failed = s.Total - s.Passed
	if s.Total > 0 {
		s.PassRate = strconv.FormatFloat(float64(s.Passed)/float64(s.Total)*100, 'f', 1, 64)
	}
	return s
}

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/site-mirror/internal/usecase"
)

var diffServe bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare screenshots of the served mirror against the baseline",
	Long: `Renders every captured page from local_base_url at every breakpoint and
compares it pixel by pixel with the capture-time screenshot. Writes
diff-results.json and diff-report.html. Exits non-zero when more than
max_fail_ratio of the pages fail.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if diffServe {
			return runDiffWithServer(cmd.Context(), a)
		}
		return runDiffStage(cmd.Context(), a)
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffServe, "serve", false, "Start the mirror server for the duration of the diff")
}

func runDiffStage(ctx context.Context, a *app) error {
	browser, err := a.openBrowser()
	if err != nil {
		return err
	}
	differ := usecase.NewDifferUseCase(a.differConfig(), browser, a.reports, a.artifacts, a.reports, a.archive)
	results, err := differ.Run(ctx)
	if results != nil {
		s := results.Summary
		slog.Info("Diff stage complete", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "pass_rate", s.PassRate+"%")
	}
	return err
}

// runDiffWithServer serves the mirror while the diff runs and stops the
// server once it is done.
func runDiffWithServer(ctx context.Context, a *app) error {
	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		return serveUntil(serverCtx, a.newMirrorServer())
	})
	g.Go(func() error {
		defer stopServer()
		if err := waitForServer(gctx, a.cfg.LocalBaseURL); err != nil {
			return err
		}
		return runDiffStage(gctx, a)
	})
	return g.Wait()
}

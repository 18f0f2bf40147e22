package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/site-mirror/internal/usecase"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite captured pages into the mirror/ tree",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runRewriteStage(cmd.Context(), a)
	},
}

func runRewriteStage(ctx context.Context, a *app) error {
	stats, err := usecase.NewRewriterUseCase(a.reports, a.artifacts, a.cfg.PreserveFragments).Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("Rewrite stage complete", "pages", stats.Pages, "stylesheets", stats.Stylesheets, "skipped", stats.Skipped)
	return nil
}

package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl, rewrite, then serve and diff in one go",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		a.startMetricsServer(ctx)

		if err := runCrawlStage(ctx, a); err != nil {
			return err
		}
		if err := runRewriteStage(ctx, a); err != nil {
			return err
		}
		return runDiffWithServer(ctx, a)
	},
}

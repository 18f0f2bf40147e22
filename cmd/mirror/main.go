// mirror captures a live website, rewrites it into a self-contained static
// copy and checks the copy against the original screenshots.
//
// Usage:
//
//	mirror crawl   [--config=config.json]
//	mirror rewrite [--config=config.json]
//	mirror serve   [--config=config.json]
//	mirror diff    [--config=config.json] [--serve]
//	mirror run     [--config=config.json]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror a website into a static copy and verify it visually",
	Long: "mirror crawls a website with a headless browser, stores its assets,\n" +
		"rewrites every page to the local copies and compares screenshots of the\n" +
		"served mirror against the originals.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to the configuration file")
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

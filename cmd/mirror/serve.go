package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mirror locally",
	Long: `Serves assets/ under /assets and mirror/ at the document root, falling
back to mirror/index.html. Run data is available under /_mirror.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return serveUntil(cmd.Context(), a.newMirrorServer())
	},
}

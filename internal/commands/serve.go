package commands

import (
	"github.com/spf13/cobra"

	"dayview/internal/web"
)

func addServe(topLevel *cobra.Command) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve day layouts and SVGs over HTTP.",
		Example: `
dayview serve
dayview serve --listen 0.0.0.0:8080
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return web.StartServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set).")
	topLevel.AddCommand(cmd)
}

package commands

import (
	"time"

	"github.com/spf13/cobra"

	"dayview/internal/capture"
)

func addCapture(topLevel *cobra.Command) {
	do := &DayOptions{}
	wo := &WidthOptions{}
	opts := capture.Options{}
	var base string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot a day from a running server to PNG.",
		Example: `
dayview capture --out day.png
dayview capture --url http://127.0.0.1:8080 --date 2024-5-14 --out day.png
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			day, err := do.GetDay(time.Now())
			if err != nil {
				return err
			}
			if base == "" {
				base = "http://" + cfg.Listen
			}
			opts.Width = int(wo.Apply(cfg.Width))
			opts.URL = capture.DayURL(base, day, opts.Width)
			return capture.DayPNG(cmd.Context(), opts)
		},
	}

	AddDayArgs(cmd, do)
	AddWidthArgs(cmd, wo)
	cmd.Flags().StringVar(&base, "url", "", "Base URL of a running dayview server; defaults to the configured listen address.")
	cmd.Flags().StringVarP(&opts.OutputPath, "out", "o", "day.png", "PNG output path.")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "Viewport height in pixels.")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "Overall capture timeout.")
	topLevel.AddCommand(cmd)
}

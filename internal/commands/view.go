package commands

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dayview/internal/tui"
)

func addView(topLevel *cobra.Command) {
	wo := &WidthOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse days interactively in the terminal.",
		Long: `Browse days interactively in the terminal.

Keys: h/l or left/right change day, t jumps to today, j/k or up/down move the
cursor, space selects the hour under the cursor and further moves extend it
by quarter hours, enter commits, esc cancels, q quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Width = wo.Apply(cfg.Width)
			return tui.Run(tui.Options{
				Params:    cfg.LayoutParams(),
				Format24h: cfg.Format24h,
				Color:     isatty.IsTerminal(os.Stdout.Fd()),
				Load:      dayLoader(cfg),
			})
		},
	}

	AddWidthArgs(cmd, wo)
	topLevel.AddCommand(cmd)
}

package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dayview/internal/config"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/model"
	"dayview/internal/render"
)

// RenderOptions select the output format and destination.
type RenderOptions struct {
	Format  string
	Out     string
	Columns int
}

func addRender(topLevel *cobra.Command) {
	do := &DayOptions{}
	wo := &WidthOptions{}
	ro := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a day as SVG or as a terminal grid.",
		Example: `
dayview render --format term
dayview render --format svg --out day.svg --date 5/14
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ro.Format != "svg" && ro.Format != "term" {
				return fmt.Errorf("unknown --format %q, want svg or term", ro.Format)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now := time.Now()
			day, err := do.GetDay(now)
			if err != nil {
				return err
			}
			events, records, err := computeDay(cmd, cfg, wo, day)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := renderDay(&buf, ro, cfg, day, now, events, records); err != nil {
				return err
			}
			if ro.Out == "" || ro.Out == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if err := os.WriteFile(ro.Out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", ro.Out, err)
			}
			appLog.Info("day rendered", "out", ro.Out, "format", ro.Format, "events", len(events))
			return nil
		},
	}

	AddDayArgs(cmd, do)
	AddWidthArgs(cmd, wo)
	cmd.Flags().StringVar(&ro.Format, "format", "term", "Output format. One of 'svg' or 'term'.")
	cmd.Flags().StringVarP(&ro.Out, "out", "o", "", "Output file; stdout when empty.")
	cmd.Flags().IntVar(&ro.Columns, "columns", 72, "Terminal columns for block area (term format).")
	topLevel.AddCommand(cmd)
}

func renderDay(w io.Writer, ro *RenderOptions, cfg *config.Config, day, now time.Time, events []model.Event, records []layout.Record) error {
	params := cfg.LayoutParams()
	if ro.Format == "svg" {
		return render.SVG(w, events, records, render.SVGOptions{
			Grid:       params.Grid(),
			Width:      cfg.Width,
			LeftMargin: cfg.LeftMargin,
			Format24h:  cfg.Format24h,
			Day:        day,
			Now:        now,
		})
	}

	out, err := render.Terminal(events, records, render.TermOptions{
		Grid:        params.Grid(),
		LayoutWidth: params.Width,
		Columns:     ro.Columns,
		Format24h:   cfg.Format24h,
		Color:       ro.Out == "" && isatty.IsTerminal(os.Stdout.Fd()),
		Day:         day,
		Now:         now,
		Cursor:      -1,
		SelTop:      -1,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

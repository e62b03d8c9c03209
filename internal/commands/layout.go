package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"dayview/internal/cache"
	"dayview/internal/config"
	"dayview/internal/layout"
	"dayview/internal/model"
	"dayview/internal/render"
)

func addLayout(topLevel *cobra.Command) {
	do := &DayOptions{}
	wo := &WidthOptions{}
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the computed block geometry of a day.",
		Example: `
dayview layout
dayview layout --date 2024-5-14 --width 600
dayview layout --json
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			day, err := do.GetDay(time.Now())
			if err != nil {
				return oo.HandleError(err)
			}
			events, records, err := computeDay(cmd, cfg, wo, day)
			if err != nil {
				return oo.HandleError(err)
			}
			out := cmd.OutOrStdout()
			if oo.JSON {
				return writeLayoutJSON(out, day, events, records)
			}
			writeLayoutTable(out, events, records, cfg.Format24h)
			return nil
		},
	}

	AddDayArgs(cmd, do)
	AddWidthArgs(cmd, wo)
	AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

// computeDay loads one day and lays it out through the disk cache.
func computeDay(cmd *cobra.Command, cfg *config.Config, wo *WidthOptions, day time.Time) ([]model.Event, []layout.Record, error) {
	cfg.Width = wo.Apply(cfg.Width)
	if cfg.EventWidth() <= 0 {
		return nil, nil, fmt.Errorf("width %v leaves no room beside the %v px label margin", cfg.Width, cfg.LeftMargin)
	}

	events, err := dayLoader(cfg)(cmd.Context(), day)
	if err != nil {
		return nil, nil, err
	}
	layouts := cache.New(filepath.Join(cfg.ResolvedCacheDir(), "layout"))
	records, _, err := layouts.Layout(day, events, cfg.LayoutParams())
	if err != nil {
		return nil, nil, err
	}
	return events, records, nil
}

type layoutJSON struct {
	Date   string          `json:"date"`
	Events []model.Event   `json:"events"`
	Layout []layout.Record `json:"layout"`
}

func writeLayoutJSON(w io.Writer, day time.Time, events []model.Event, records []layout.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(layoutJSON{
		Date:   day.Format("2006-01-02"),
		Events: events,
		Layout: records,
	})
}

func writeLayoutTable(w io.Writer, events []model.Event, records []layout.Record, format24h bool) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(bold.Sprint("TIME"), bold.Sprint("TITLE"), bold.Sprint("COL"),
		bold.Sprint("TOP"), bold.Sprint("HEIGHT"), bold.Sprint("LEFT"), bold.Sprint("WIDTH"))
	for i, r := range records {
		ev := events[i]
		tbl.AddRow(
			faint.Sprint(render.TimeRange(ev.Start, ev.End, format24h)),
			ev.DisplayTitle(),
			fmt.Sprintf("%d/%d", r.Column+1, r.TotalColumns),
			fmt.Sprintf("%.1f", r.Top),
			fmt.Sprintf("%.1f", r.Height),
			fmt.Sprintf("%.1f", r.Left),
			fmt.Sprintf("%.1f", r.Width),
		)
	}
	tbl.RightAlign(2)
	tbl.RightAlign(3)
	tbl.RightAlign(4)
	tbl.RightAlign(5)
	tbl.RightAlign(6)

	_, _ = fmt.Fprintln(w, tbl)
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("no events"))
	}
}

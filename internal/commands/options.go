package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dayview/internal/model"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// DayOptions selects the day to show.
type DayOptions struct {
	Date string
}

func AddDayArgs(cmd *cobra.Command, o *DayOptions) {
	cmd.Flags().StringVar(&o.Date, "date", "",
		`Day to show, example: --date="2024-5-14" or --date="5/14". Defaults to today.`)
}

// GetDay resolves --date relative to now. A bare month/day is in the
// current year.
func (o *DayOptions) GetDay(now time.Time) (time.Time, error) {
	if o.Date == "" {
		return model.Day(now), nil
	}
	t, err := time.ParseInLocation(layoutISO, o.Date, time.Local)
	if err != nil {
		t, err = time.ParseInLocation(layoutISOShort, o.Date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q: %w", o.Date, err)
		}
		t = t.AddDate(now.Year(), 0, 0)
	}
	return t, nil
}

// WidthOptions overrides the configured viewport width.
type WidthOptions struct {
	Width int
}

func AddWidthArgs(cmd *cobra.Command, o *WidthOptions) {
	cmd.Flags().IntVar(&o.Width, "width", 0,
		"Viewport width in pixels, including the hour-label margin. Defaults to the config value.")
}

// Apply returns the effective viewport width.
func (o *WidthOptions) Apply(configured float64) float64 {
	if o.Width > 0 {
		return float64(o.Width)
	}
	return configured
}

// OutputOptions selects machine-readable output.
type OutputOptions struct {
	JSON bool
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

// HandleError prints err as a JSON object when --json is set.
func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}

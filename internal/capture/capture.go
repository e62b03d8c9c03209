// Package capture screenshots a rendered day through headless Chromium.
package capture

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"dayview/internal/config"
	appLog "dayview/internal/log"
)

// Default capture parameters. The height only sizes the initial viewport;
// the screenshot always covers the whole page.
const (
	DefaultWidth      = config.DefaultWidth
	DefaultHeight     = 844
	DefaultTimeoutSec = 30
)

// ReadySelector matches the root element once rendering is complete.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, usually built with DayURL.
	URL string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// DayURL is the SVG endpoint of a running `dayview serve` for one day.
func DayURL(base string, day time.Time, width int) string {
	q := url.Values{}
	q.Set("date", day.Format("2006-01-02"))
	if width > 0 {
		q.Set("width", strconv.Itoa(width))
	}
	return strings.TrimRight(base, "/") + "/day.svg?" + q.Encode()
}

func (o *Options) applyDefaults() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// DayPNG navigates headless Chromium to opts.URL, waits until the page
// marks itself ready and writes a full-page PNG to opts.OutputPath.
func DayPNG(parentCtx context.Context, opts Options) error {
	if err := opts.applyDefaults(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(200 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("day captured", "out", opts.OutputPath, "bytes", len(png), "took", time.Since(start).Round(time.Millisecond).String())
	return nil
}

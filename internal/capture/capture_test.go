package capture

import (
	"context"
	"testing"
	"time"
)

func TestDayURL(t *testing.T) {
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		base  string
		width int
		want  string
	}{
		{"http://127.0.0.1:8080", 390, "http://127.0.0.1:8080/day.svg?date=2024-05-14&width=390"},
		{"http://host/", 0, "http://host/day.svg?date=2024-05-14"},
	}
	for _, tt := range tests {
		if got := DayURL(tt.base, day, tt.width); got != tt.want {
			t.Errorf("DayURL(%q, %d) = %q, want %q", tt.base, tt.width, got, tt.want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	o := Options{URL: "http://x", OutputPath: "out.png"}
	if err := o.applyDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeoutSec*time.Second {
		t.Errorf("defaults = %+v", o)
	}
}

func TestDayPNGValidatesOptions(t *testing.T) {
	if err := DayPNG(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Error("expected error without URL")
	}
	if err := DayPNG(context.Background(), Options{URL: "http://x"}); err == nil {
		t.Error("expected error without output path")
	}
}
